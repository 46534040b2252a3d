package delivery

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func tempVideo(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "1.mp4")
	if err := os.WriteFile(path, []byte("video"), 0o644); err != nil {
		t.Fatalf("write video: %v", err)
	}
	return path
}

func TestSendVideoToGroup(t *testing.T) {
	var captured sendMessageRequest
	var capturedPath, capturedAuth string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		capturedPath = r.URL.Path
		capturedAuth = r.Header.Get("Authorization")
		if err := json.NewDecoder(r.Body).Decode(&captured); err != nil {
			t.Fatalf("decode: %v", err)
		}
		_, _ = w.Write([]byte(`{"status":"ok","retcode":0}`))
	}))
	defer srv.Close()

	video := tempVideo(t)
	c := New(Options{BaseURL: srv.URL, Token: "secret"})
	if err := c.SendVideo(context.Background(), Target{GroupID: "12345"}, video, "🎬 done"); err != nil {
		t.Fatalf("SendVideo: %v", err)
	}
	if capturedPath != "/send_group_msg" {
		t.Fatalf("path = %q", capturedPath)
	}
	if capturedAuth != "Bearer secret" {
		t.Fatalf("auth = %q", capturedAuth)
	}
	if captured.GroupID != "12345" {
		t.Fatalf("group_id = %q", captured.GroupID)
	}
	if len(captured.Message) != 2 {
		t.Fatalf("segments = %d, want video + caption", len(captured.Message))
	}
	if captured.Message[0].Type != "video" {
		t.Fatalf("first segment = %q", captured.Message[0].Type)
	}
	file, _ := captured.Message[0].Data["file"].(string)
	if !strings.HasPrefix(file, "file://") || !strings.HasSuffix(file, "1.mp4") {
		t.Fatalf("file uri = %q", file)
	}
}

func TestSendVideoToUser(t *testing.T) {
	var capturedPath string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		capturedPath = r.URL.Path
		_, _ = w.Write([]byte(`{"status":"ok","retcode":0}`))
	}))
	defer srv.Close()

	c := New(Options{BaseURL: srv.URL})
	if err := c.SendVideo(context.Background(), Target{UserID: "777"}, tempVideo(t), ""); err != nil {
		t.Fatalf("SendVideo: %v", err)
	}
	if capturedPath != "/send_private_msg" {
		t.Fatalf("path = %q", capturedPath)
	}
}

func TestSendVideoSurfacesRetcode(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"status":"failed","retcode":1400,"message":"file not accessible"}`))
	}))
	defer srv.Close()

	c := New(Options{BaseURL: srv.URL})
	err := c.SendVideo(context.Background(), Target{GroupID: "1"}, tempVideo(t), "")
	if err == nil {
		t.Fatalf("expected error")
	}
	if !strings.Contains(err.Error(), "file not accessible") {
		t.Fatalf("error %q lost the remote detail", err.Error())
	}
}

func TestSendVideoRequiresTarget(t *testing.T) {
	c := New(Options{BaseURL: "http://localhost:1"})
	if err := c.SendVideo(context.Background(), Target{}, tempVideo(t), ""); err == nil {
		t.Fatalf("expected error for missing target")
	}
}

func TestSendVideoRequiresExistingFile(t *testing.T) {
	c := New(Options{BaseURL: "http://localhost:1"})
	err := c.SendVideo(context.Background(), Target{GroupID: "1"}, "/nonexistent/1.mp4", "")
	if err == nil {
		t.Fatalf("expected error for missing file")
	}
}
