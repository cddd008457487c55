package telegram_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"scribe/internal/services/telegram"
)

func newTestServer(t *testing.T, handler http.HandlerFunc) (*httptest.Server, *telegram.Client) {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)
	return server, telegram.NewClientForTest(server.URL, "test-token")
}

func TestSendMessage(t *testing.T) {
	var gotPath, gotChat, gotText string
	_, client := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		if err := r.ParseForm(); err != nil {
			t.Errorf("parse form: %v", err)
		}
		gotChat = r.PostFormValue("chat_id")
		gotText = r.PostFormValue("text")
		_, _ = w.Write([]byte(`{"ok":true,"result":{}}`))
	})

	if err := client.SendMessage(context.Background(), 42, "hello"); err != nil {
		t.Fatalf("SendMessage failed: %v", err)
	}
	if gotPath != "/bottest-token/sendMessage" {
		t.Fatalf("unexpected path %q", gotPath)
	}
	if gotChat != "42" || gotText != "hello" {
		t.Fatalf("unexpected form values chat=%q text=%q", gotChat, gotText)
	}
}

func TestCallSurfacesAPIError(t *testing.T) {
	_, client := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"ok":false,"description":"chat not found"}`))
	})

	err := client.SendMessage(context.Background(), 42, "hello")
	if err == nil {
		t.Fatal("expected error from failed API response")
	}
}

func TestGetUpdatesDecodesMessages(t *testing.T) {
	_, client := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		payload := map[string]any{
			"ok": true,
			"result": []map[string]any{
				{
					"update_id": 10,
					"message": map[string]any{
						"message_id": 1,
						"chat":       map[string]any{"id": 7},
						"video":      map[string]any{"file_id": "f1", "file_name": "clip.mp4"},
					},
				},
			},
		}
		_ = json.NewEncoder(w).Encode(payload)
	})

	updates, err := client.GetUpdates(context.Background(), 0, 1)
	if err != nil {
		t.Fatalf("GetUpdates failed: %v", err)
	}
	if len(updates) != 1 {
		t.Fatalf("expected 1 update, got %d", len(updates))
	}
	msg := updates[0].Message
	if msg == nil || msg.Chat.ID != 7 || msg.Video == nil || msg.Video.FileID != "f1" {
		t.Fatalf("unexpected message: %+v", msg)
	}
}

func TestSendDocumentUploadsMultipart(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "transcription.txt")
	if err := os.WriteFile(path, []byte("[00:00:00 - 00:00:01] hi\n"), 0o644); err != nil {
		t.Fatalf("write document: %v", err)
	}

	var gotFilename, gotCaption string
	_, client := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		if err := r.ParseMultipartForm(1 << 20); err != nil {
			t.Errorf("parse multipart: %v", err)
		}
		gotCaption = r.PostFormValue("caption")
		if _, header, err := r.FormFile("document"); err == nil {
			gotFilename = header.Filename
		}
		_, _ = w.Write([]byte(`{"ok":true,"result":{}}`))
	})

	if err := client.SendDocument(context.Background(), 42, path, "Result"); err != nil {
		t.Fatalf("SendDocument failed: %v", err)
	}
	if gotFilename != "transcription.txt" {
		t.Fatalf("expected filename transcription.txt, got %q", gotFilename)
	}
	if gotCaption != "Result" {
		t.Fatalf("expected caption Result, got %q", gotCaption)
	}
}

func TestSourceFetchDownloadsVideo(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/bottest-token/getFile", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"ok":true,"result":{"file_id":"f1","file_path":"videos/clip.mkv"}}`))
	})
	mux.HandleFunc("/file/bottest-token/videos/clip.mkv", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("video-bytes"))
	})
	server := httptest.NewServer(mux)
	t.Cleanup(server.Close)
	client := telegram.NewClientForTest(server.URL, "test-token")

	dir := t.TempDir()
	source := telegram.NewSource(client)
	path, err := source.Fetch(context.Background(), "f1", "clip.mkv", dir)
	if err != nil {
		t.Fatalf("Fetch failed: %v", err)
	}
	if filepath.Base(path) != "source.mkv" {
		t.Fatalf("expected source.mkv, got %s", path)
	}
	data, err := os.ReadFile(path)
	if err != nil || string(data) != "video-bytes" {
		t.Fatalf("unexpected download contents %q err=%v", data, err)
	}
}
