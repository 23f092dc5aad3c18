package server

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net"
	"net/http"
	"testing"

	"northstar/internal/config"
	"northstar/internal/db"
	"northstar/internal/engine"
	"northstar/internal/migrate"
)

type testServer struct {
	URL    string
	client *http.Client
	close  func()
}

func (s *testServer) Client() *http.Client { return s.client }
func (s *testServer) Close()               { s.close() }

func newTestServer(t *testing.T) (*testServer, func()) {
	t.Helper()
	workspace := t.TempDir()
	conn, err := db.Open(db.Config{Workspace: workspace})
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	if err := migrate.Migrate(conn); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	e := engine.New(conn, config.Default("northstar"))
	handler, err := New(Config{
		Engine:   e,
		BasePath: "/v1",
		Auth:     AuthConfig{AllowLegacyActorHeader: true},
	})
	if err != nil {
		t.Fatalf("build handler: %v", err)
	}
	ln, err := net.Listen("tcp4", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	srv := &http.Server{Handler: handler}
	go srv.Serve(ln)
	testSrv := &testServer{
		URL:    "http://" + ln.Addr().String(),
		client: &http.Client{},
		close: func() {
			srv.Shutdown(context.Background())
			ln.Close()
			conn.Close()
		},
	}
	return testSrv, func() { testSrv.Close() }
}

func doJSON(t *testing.T, client *http.Client, method, url string, body any, headers map[string]string) (*http.Response, []byte) {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal body: %v", err)
		}
		reader = bytes.NewReader(b)
	} else {
		reader = bytes.NewReader(nil)
	}
	req, err := http.NewRequest(method, url, reader)
	if err != nil {
		t.Fatalf("new request: %v", err)
	}
	req.Header.Set("Content-Type", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	res, err := client.Do(req)
	if err != nil {
		t.Fatalf("do request: %v", err)
	}
	defer res.Body.Close()
	data, err := io.ReadAll(res.Body)
	if err != nil {
		t.Fatalf("read body: %v", err)
	}
	return res, data
}

func asActor(id string) map[string]string {
	return map[string]string{"X-Actor-Id": id}
}

func TestObjectiveCommentNotificationFlow(t *testing.T) {
	srv, cleanup := newTestServer(t)
	defer cleanup()
	client := srv.Client()

	createRes, data := doJSON(t, client, http.MethodPost, srv.URL+"/v1/objectives", map[string]any{
		"objective": "Grow revenue",
		"category":  "team",
		"owners":    []map[string]string{{"userId": "u1"}},
	}, asActor("u1"))
	if createRes.StatusCode != http.StatusCreated {
		t.Fatalf("create objective status %d: %s", createRes.StatusCode, string(data))
	}
	var created ObjectiveResponse
	if err := json.Unmarshal(data, &created); err != nil {
		t.Fatalf("unmarshal objective: %v", err)
	}
	if created.ID == "" || created.Status != "active" {
		t.Fatalf("unexpected objective %+v", created)
	}

	listRes, listBody := doJSON(t, client, http.MethodGet, srv.URL+"/v1/objectives", nil, asActor("u2"))
	if listRes.StatusCode != http.StatusOK {
		t.Fatalf("list status %d: %s", listRes.StatusCode, string(listBody))
	}
	var listed []ObjectiveResponse
	if err := json.Unmarshal(listBody, &listed); err != nil {
		t.Fatalf("unmarshal list: %v", err)
	}
	if len(listed) != 1 || listed[0].ID != created.ID {
		t.Fatalf("team objective visible to everyone, got %v", listed)
	}

	commentRes, commentBody := doJSON(t, client, http.MethodPost, srv.URL+"/v1/objectives/"+created.ID+"/comments", map[string]any{
		"text": "looping in @[Bob](u2)",
	}, asActor("u1"))
	if commentRes.StatusCode != http.StatusCreated {
		t.Fatalf("create comment status %d: %s", commentRes.StatusCode, string(commentBody))
	}

	notifRes, notifBody := doJSON(t, client, http.MethodGet, srv.URL+"/v1/notifications", nil, asActor("u2"))
	if notifRes.StatusCode != http.StatusOK {
		t.Fatalf("notifications status %d: %s", notifRes.StatusCode, string(notifBody))
	}
	var notifs []NotificationResponse
	if err := json.Unmarshal(notifBody, &notifs); err != nil {
		t.Fatalf("unmarshal notifications: %v", err)
	}
	if len(notifs) != 1 || notifs[0].Type != "mention" {
		t.Fatalf("expected one mention notification, got %s", string(notifBody))
	}

	unreadRes, unreadBody := doJSON(t, client, http.MethodGet, srv.URL+"/v1/notifications/unread", nil, asActor("u2"))
	if unreadRes.StatusCode != http.StatusOK {
		t.Fatalf("unread status %d: %s", unreadRes.StatusCode, string(unreadBody))
	}
	var unread map[string]int
	_ = json.Unmarshal(unreadBody, &unread)
	if unread["unread"] != 1 {
		t.Fatalf("expected one unread, got %s", string(unreadBody))
	}
}

func TestPurgeGuardEnvelope(t *testing.T) {
	srv, cleanup := newTestServer(t)
	defer cleanup()
	client := srv.Client()

	res, data := doJSON(t, client, http.MethodPost, srv.URL+"/v1/objectives", map[string]any{
		"objective": "Short lived",
		"category":  "team",
		"owners":    []map[string]string{{"userId": "u1"}},
	}, asActor("u1"))
	if res.StatusCode != http.StatusCreated {
		t.Fatalf("create: %d %s", res.StatusCode, string(data))
	}
	var created ObjectiveResponse
	_ = json.Unmarshal(data, &created)

	// purging a live objective is a guard violation
	purgeRes, purgeBody := doJSON(t, client, http.MethodDelete, srv.URL+"/v1/objectives/"+created.ID+"/purge", nil, asActor("u1"))
	if purgeRes.StatusCode != http.StatusConflict {
		t.Fatalf("expected conflict, got %d %s", purgeRes.StatusCode, string(purgeBody))
	}
	var envelope struct {
		Error struct {
			Code string `json:"code"`
		} `json:"error"`
	}
	if err := json.Unmarshal(purgeBody, &envelope); err != nil {
		t.Fatalf("unmarshal error envelope: %v", err)
	}
	if envelope.Error.Code != "guard_violation" {
		t.Fatalf("expected guard_violation, got %s", string(purgeBody))
	}

	delRes, delBody := doJSON(t, client, http.MethodDelete, srv.URL+"/v1/objectives/"+created.ID, nil, asActor("u1"))
	if delRes.StatusCode != http.StatusOK {
		t.Fatalf("soft delete: %d %s", delRes.StatusCode, string(delBody))
	}
	purgeRes, purgeBody = doJSON(t, client, http.MethodDelete, srv.URL+"/v1/objectives/"+created.ID+"/purge", nil, asActor("u1"))
	if purgeRes.StatusCode != http.StatusNoContent {
		t.Fatalf("purge after soft delete: %d %s", purgeRes.StatusCode, string(purgeBody))
	}
	getRes, getBody := doJSON(t, client, http.MethodGet, srv.URL+"/v1/objectives/"+created.ID, nil, asActor("u1"))
	if getRes.StatusCode != http.StatusNotFound {
		t.Fatalf("purged objective should be gone, got %d %s", getRes.StatusCode, string(getBody))
	}
}

func TestIndividualObjectiveHiddenFromStrangers(t *testing.T) {
	srv, cleanup := newTestServer(t)
	defer cleanup()
	client := srv.Client()

	res, data := doJSON(t, client, http.MethodPost, srv.URL+"/v1/objectives", map[string]any{
		"objective": "Personal growth",
		"category":  "individual",
		"owners":    []map[string]string{{"userId": "u1"}},
	}, asActor("u1"))
	if res.StatusCode != http.StatusCreated {
		t.Fatalf("create: %d %s", res.StatusCode, string(data))
	}
	var created ObjectiveResponse
	_ = json.Unmarshal(data, &created)

	getRes, getBody := doJSON(t, client, http.MethodGet, srv.URL+"/v1/objectives/"+created.ID, nil, asActor("stranger"))
	if getRes.StatusCode != http.StatusNotFound {
		t.Fatalf("stranger should get 404, got %d %s", getRes.StatusCode, string(getBody))
	}

	listRes, listBody := doJSON(t, client, http.MethodGet, srv.URL+"/v1/objectives", nil, asActor("stranger"))
	if listRes.StatusCode != http.StatusOK {
		t.Fatalf("list: %d %s", listRes.StatusCode, string(listBody))
	}
	var listed []ObjectiveResponse
	_ = json.Unmarshal(listBody, &listed)
	if len(listed) != 0 {
		t.Fatalf("stranger must not see individual objectives, got %v", listed)
	}
}

func TestUnauthenticatedRequestRejected(t *testing.T) {
	srv, cleanup := newTestServer(t)
	defer cleanup()
	client := srv.Client()

	res, data := doJSON(t, client, http.MethodGet, srv.URL+"/v1/objectives", nil, nil)
	if res.StatusCode != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d %s", res.StatusCode, string(data))
	}

	// health is open
	healthRes, _ := doJSON(t, client, http.MethodGet, srv.URL+"/v1/health", nil, nil)
	if healthRes.StatusCode != http.StatusOK {
		t.Fatalf("health should not require auth, got %d", healthRes.StatusCode)
	}
}
