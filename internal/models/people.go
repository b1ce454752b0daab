package models

// AddPersonRequest adds a collaborator to the current user's board.
type AddPersonRequest struct {
	Email string `json:"email" binding:"required,email"`
}

// PeopleResponse wraps the collaborator list.
type PeopleResponse struct {
	People []string `json:"people"`
}

// AddPersonResponse reports whether the collaborator was added.
type AddPersonResponse struct {
	Success bool     `json:"success"`
	People  []string `json:"people"`
	Message string   `json:"message,omitempty"`
}

// PersonSuggestion is a registered user matching a people search.
type PersonSuggestion struct {
	Email string `json:"email"`
	Name  string `json:"name"`
	Score int    `json:"score"`
}
