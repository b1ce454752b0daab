package handlers

import (
	"context"
	"net/http"
	"testing"

	"taskboard/internal/models"

	"github.com/stretchr/testify/require"
)

type suggestionsResponse struct {
	Suggestions []models.PersonSuggestion `json:"suggestions"`
}

func TestGetPeopleStartsEmpty(t *testing.T) {
	env := newTestEnv(t)
	_, token := env.seedUser(t, "Ada", "ada@example.com", "secret1")

	w := env.do(t, http.MethodGet, "/api/people", token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	require.JSONEq(t, `{"people":[]}`, w.Body.String())
}

func TestAddPersonDedupes(t *testing.T) {
	env := newTestEnv(t)
	_, token := env.seedUser(t, "Ada", "ada@example.com", "secret1")

	w := env.do(t, http.MethodPost, "/api/people", token, models.AddPersonRequest{Email: " Bob@Example.com "})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	first := decode[models.AddPersonResponse](t, w)
	require.True(t, first.Success)
	require.Equal(t, []string{"bob@example.com"}, first.People)
	require.Empty(t, first.Message)

	w = env.do(t, http.MethodPost, "/api/people", token, models.AddPersonRequest{Email: "bob@example.com"})
	require.Equal(t, http.StatusOK, w.Code)
	again := decode[models.AddPersonResponse](t, w)
	require.False(t, again.Success)
	require.Equal(t, "This email is already added", again.Message)
	require.Equal(t, []string{"bob@example.com"}, again.People)

	w = env.do(t, http.MethodPost, "/api/people", token, models.AddPersonRequest{Email: "cy@example.com"})
	require.True(t, decode[models.AddPersonResponse](t, w).Success)

	w = env.do(t, http.MethodGet, "/api/people", token, nil)
	require.Equal(t, []string{"bob@example.com", "cy@example.com"}, decode[models.PeopleResponse](t, w).People)
}

func TestAddPersonRejectsSelfAndInvalid(t *testing.T) {
	env := newTestEnv(t)
	_, token := env.seedUser(t, "Ada", "ada@example.com", "secret1")

	w := env.do(t, http.MethodPost, "/api/people", token, models.AddPersonRequest{Email: "ADA@example.com"})
	resp := requireError(t, w, http.StatusBadRequest, "validation_error")
	require.Equal(t, "You cannot add yourself", resp.Message)

	w = env.do(t, http.MethodPost, "/api/people", token, models.AddPersonRequest{Email: "nope"})
	requireError(t, w, http.StatusBadRequest, "validation_error")

	w = env.do(t, http.MethodPost, "/api/people", token, `{}`)
	requireError(t, w, http.StatusBadRequest, "validation_error")
}

func TestPeopleRequiresAuth(t *testing.T) {
	env := newTestEnv(t)

	requireError(t, env.do(t, http.MethodGet, "/api/people", "", nil), http.StatusUnauthorized, "unauthorized")
	requireError(t, env.do(t, http.MethodPost, "/api/people", "not-a-jwt", models.AddPersonRequest{Email: "a@b.co"}),
		http.StatusUnauthorized, "invalid_token")
}

func TestSuggestionsFoldAccentsAndSkipKnownPeople(t *testing.T) {
	env := newTestEnv(t)
	ada, token := env.seedUser(t, "Ada", "ada@example.com", "secret1")
	env.seedUser(t, "Đặng Văn Bình", "binh@example.com", "secret1")
	env.seedUser(t, "Dan Brown", "dan@example.com", "secret1")
	env.seedUser(t, "Zoe", "zoe@example.com", "secret1")

	w := env.do(t, http.MethodGet, "/api/people/suggestions?q=dang", token, nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	got := decode[suggestionsResponse](t, w).Suggestions
	require.NotEmpty(t, got)
	require.Equal(t, "binh@example.com", got[0].Email)
	for _, s := range got {
		require.NotEqual(t, "ada@example.com", s.Email)
		require.NotEqual(t, "zoe@example.com", s.Email)
	}

	_, _, err := env.users.AddPerson(context.Background(), ada.ID.Hex(), "binh@example.com")
	require.NoError(t, err)

	w = env.do(t, http.MethodGet, "/api/people/suggestions?q=dang", token, nil)
	for _, s := range decode[suggestionsResponse](t, w).Suggestions {
		require.NotEqual(t, "binh@example.com", s.Email)
	}
}

func TestSuggestionsEmptyQuery(t *testing.T) {
	env := newTestEnv(t)
	_, token := env.seedUser(t, "Ada", "ada@example.com", "secret1")

	w := env.do(t, http.MethodGet, "/api/people/suggestions?q=%20", token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	require.JSONEq(t, `{"suggestions":[]}`, w.Body.String())
}

func TestSuggestionsAreCapped(t *testing.T) {
	env := newTestEnv(t)
	_, token := env.seedUser(t, "Ada", "ada@example.com", "secret1")
	for _, e := range []string{"m1", "m2", "m3", "m4", "m5", "m6", "m7"} {
		env.seedUser(t, "Member "+e, e+"@example.com", "secret1")
	}

	w := env.do(t, http.MethodGet, "/api/people/suggestions?q=member", token, nil)
	require.Len(t, decode[suggestionsResponse](t, w).Suggestions, maxSuggestions)
}
