package integration

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"

	"notesync/internal/bootstrap"
	"notesync/internal/config"
	"notesync/internal/dto"
	"notesync/internal/entity"
	"notesync/internal/pkg/serverutils"
	"notesync/internal/server"
	"notesync/pkg/database"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/joho/godotenv"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestNotesFlow drives the full HTTP surface against a real database:
// register, create a group, create and edit notes inside it, soft delete,
// restore, and logout with token revocation.
func TestNotesFlow(t *testing.T) {
	// Load .env from root (2 levels up) because tests run in package dir
	if err := godotenv.Load("../../.env"); err != nil {
		t.Logf("Warning: Could not load ../../.env: %v", err)
	}
	if os.Getenv("DB_CONNECTION_STRING") == "" {
		t.Skip("DB_CONNECTION_STRING not set; skipping database integration test")
	}
	cfg := config.Load()

	db, err := database.NewGormDBFromDSN(cfg.Database.Connection)
	if err != nil {
		t.Fatalf("Failed to connect to DB: %v", err)
	}

	container := bootstrap.NewContainer(db, cfg)
	srv := server.New(cfg, container)
	app := srv.GetApp()

	email := fmt.Sprintf("flow-%s@example.com", uuid.NewString()[:8])
	password := "secret123"

	// 1. Register
	var registered serverutils.Response[dto.RegisterResponse]
	resp := doJSON(t, app, http.MethodPost, "/api/auth/v1/register", "", dto.RegisterRequest{
		Email:    email,
		Password: password,
	}, &registered)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.NotEmpty(t, registered.Data.Token)
	assert.Equal(t, email, registered.Data.Email)

	// 2. Login
	var logged serverutils.Response[dto.LoginResponse]
	resp = doJSON(t, app, http.MethodPost, "/api/auth/v1/login", "", dto.LoginRequest{
		Email:    email,
		Password: password,
	}, &logged)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	token := logged.Data.Token
	require.NotEmpty(t, token)

	// 3. Create a shopping group
	var createdGroup serverutils.Response[dto.CreateGroupResponse]
	resp = doJSON(t, app, http.MethodPost, "/api/group/v1", token, dto.CreateGroupRequest{
		Title: "Groceries",
		Type:  string(entity.GroupTypeShopping),
	}, &createdGroup)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	groupId := createdGroup.Data.Id
	require.NotEqual(t, uuid.Nil, groupId)

	// 4. Create a checklist note in it
	var createdNote serverutils.Response[dto.CreateNoteResponse]
	resp = doJSON(t, app, http.MethodPost, "/api/note/v1", token, dto.CreateNoteRequest{
		Title:   "Weekly run",
		Items:   []entity.NoteItem{},
		GroupId: groupId,
	}, &createdNote)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	noteId := createdNote.Data.Id

	// 5. List notes scoped to the group
	var listed serverutils.Response[[]dto.NoteResponse]
	resp = doJSON(t, app, http.MethodGet, "/api/note/v1?group_id="+groupId.String(), token, nil, &listed)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Len(t, listed.Data, 1)
	assert.Equal(t, noteId, listed.Data[0].Id)
	assert.True(t, listed.Data[0].CreatedAt.Equal(listed.Data[0].UpdatedAt))

	// 6. Update the note with an item
	item := entity.NoteItem{Id: uuid.New(), Text: "Milk"}
	items := []entity.NoteItem{item}
	var updated serverutils.Response[dto.UpdateNoteResponse]
	resp = doJSON(t, app, http.MethodPut, "/api/note/v1/"+noteId.String(), token, dto.UpdateNoteRequest{
		Title: "Weekly run",
		Items: &items,
	}, &updated)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var shown serverutils.Response[dto.NoteResponse]
	resp = doJSON(t, app, http.MethodGet, "/api/note/v1/"+noteId.String(), token, nil, &shown)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Len(t, shown.Data.Items, 1)
	assert.Equal(t, "Milk", shown.Data.Items[0].Text)
	assert.False(t, shown.Data.Items[0].Completed)
	assert.True(t, shown.Data.UpdatedAt.After(shown.Data.CreatedAt))

	// 7. Soft delete hides the note from the listing
	resp = doJSON(t, app, http.MethodDelete, "/api/note/v1/"+noteId.String(), token, nil, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	resp = doJSON(t, app, http.MethodGet, "/api/note/v1?group_id="+groupId.String(), token, nil, &listed)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Len(t, listed.Data, 0)

	// 8. Restore brings it back
	resp = doJSON(t, app, http.MethodPut, "/api/note/v1/"+noteId.String()+"/restore", token, nil, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	resp = doJSON(t, app, http.MethodGet, "/api/note/v1?group_id="+groupId.String(), token, nil, &listed)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Len(t, listed.Data, 1)

	// 9. Deleting the group hides its notes too
	resp = doJSON(t, app, http.MethodDelete, "/api/group/v1/"+groupId.String(), token, nil, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	resp = doJSON(t, app, http.MethodGet, "/api/note/v1", token, nil, &listed)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Len(t, listed.Data, 0)

	// 10. Logout revokes the token
	resp = doJSON(t, app, http.MethodPost, "/api/auth/v1/logout", token, nil, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	resp = doJSON(t, app, http.MethodGet, "/api/group/v1", token, nil, nil)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestAuthRejectsBadInput(t *testing.T) {
	if err := godotenv.Load("../../.env"); err != nil {
		t.Logf("Warning: Could not load ../../.env: %v", err)
	}
	if os.Getenv("DB_CONNECTION_STRING") == "" {
		t.Skip("DB_CONNECTION_STRING not set; skipping database integration test")
	}
	cfg := config.Load()

	db, err := database.NewGormDBFromDSN(cfg.Database.Connection)
	if err != nil {
		t.Fatalf("Failed to connect to DB: %v", err)
	}
	container := bootstrap.NewContainer(db, cfg)
	app := server.New(cfg, container).GetApp()

	// Short password fails validation
	resp := doJSON(t, app, http.MethodPost, "/api/auth/v1/register", "", dto.RegisterRequest{
		Email:    "bad@example.com",
		Password: "abc",
	}, nil)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	// Unknown account gets a generic 401
	resp = doJSON(t, app, http.MethodPost, "/api/auth/v1/login", "", dto.LoginRequest{
		Email:    fmt.Sprintf("nobody-%s@example.com", uuid.NewString()[:8]),
		Password: "whatever1",
	}, nil)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	// No token gets a 401
	resp = doJSON(t, app, http.MethodGet, "/api/group/v1", "", nil, nil)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func doJSON(t *testing.T, app *fiber.App, method, path, token string, body interface{}, out interface{}) *http.Response {
	t.Helper()

	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		require.NoError(t, err)
		reader = strings.NewReader(string(payload))
	}

	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := app.Test(req, -1)
	require.NoError(t, err)

	if out != nil && resp.StatusCode < 300 {
		raw, err := io.ReadAll(resp.Body)
		require.NoError(t, err)
		require.NoError(t, json.Unmarshal(raw, out), "body: %s", string(raw))
	}
	resp.Body.Close()
	return resp
}
