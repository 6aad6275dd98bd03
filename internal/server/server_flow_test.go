package server

import (
	"net/http"
	"testing"
)

// TestFullGameFlow walks a two player game from room creation to the
// results screen, advancing each reveal countdown by invoking the timer
// callback directly.
func TestFullGameFlow(t *testing.T) {
	srv := New(nil, newTestConfig(t))
	ts := newTestServer(t, srv.Handler())
	defer ts.Close()

	code := createRoom(t, ts)
	alice := joinPlayer(t, ts, code, "Alice")
	bob := joinPlayer(t, ts, code, "Bob")

	uploadBatch(t, ts, code, alice, srv.cfg.MinPhotosPerBatch)
	uploadBatch(t, ts, code, bob, srv.cfg.MinPhotosPerBatch)

	resp := doRequest(t, ts, http.MethodPost, "/api/rooms/"+code+"/start", map[string]any{
		"player_id": alice,
	})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("start round: status %d", resp.StatusCode)
	}
	started := decodeBody(t, resp)
	if started["phase"] != phasePlaying {
		t.Fatalf("expected playing phase after start, got %v", started["phase"])
	}

	for round := 0; round < srv.cfg.RoundLimit; round++ {
		// Reveal countdown expires.
		srv.autoAdvancePhase(code, phasePlaying, round)

		snapshot := fetchSnapshot(t, ts, code)
		if snapshot["phase"] != phaseGuessing {
			t.Fatalf("round %d: expected guessing, got %v", round, snapshot["phase"])
		}
		photo, ok := snapshot["current_photo"].(map[string]any)
		if !ok {
			t.Fatalf("round %d: no mystery photo in snapshot", round)
		}
		owner := int(photo["player_id"].(float64))

		resp := doRequest(t, ts, http.MethodPost, "/api/rooms/"+code+"/guesses", map[string]any{
			"player_id":         bob,
			"round":             round,
			"guessed_player_id": owner,
		})
		if resp.StatusCode != http.StatusOK {
			t.Fatalf("round %d: guess status %d", round, resp.StatusCode)
		}
		body := decodeBody(t, resp)
		if body["correct"] != true {
			t.Fatalf("round %d: guessing the owner was marked wrong", round)
		}
	}

	snapshot := fetchSnapshot(t, ts, code)
	if snapshot["phase"] != phaseResults {
		t.Fatalf("expected results after the last round, got %v", snapshot["phase"])
	}

	resp = doRequest(t, ts, http.MethodGet, "/api/rooms/"+code+"/results", nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("results: status %d", resp.StatusCode)
	}
	results := decodeBody(t, resp)
	board := results["leaderboard"].([]any)
	if len(board) != 2 {
		t.Fatalf("expected 2 leaderboard entries, got %d", len(board))
	}
	top := board[0].(map[string]any)
	if int(top["player_id"].(float64)) != bob {
		t.Fatalf("expected bob on top, got %v", top)
	}
	wantScore := srv.cfg.RoundLimit * pointsPerCorrectGuess
	if int(top["score"].(float64)) != wantScore {
		t.Fatalf("expected score %d, got %v", wantScore, top["score"])
	}

	// A guess against the finished game is turned away.
	resp = doRequest(t, ts, http.MethodPost, "/api/rooms/"+code+"/guesses", map[string]any{
		"player_id":         bob,
		"round":             srv.cfg.RoundLimit,
		"guessed_player_id": alice,
	})
	if resp.StatusCode != http.StatusConflict {
		t.Fatalf("expected 409 after results, got %d", resp.StatusCode)
	}
}

// TestGuessRaceWithTimeout drives the double-advance scenario over
// HTTP: the guess lands first, then the expired countdown for the same
// round fires and must not advance the game a second time.
func TestGuessRaceWithTimeout(t *testing.T) {
	srv := New(nil, newTestConfig(t))
	ts := newTestServer(t, srv.Handler())
	defer ts.Close()

	code := createRoom(t, ts)
	alice := joinPlayer(t, ts, code, "Alice")
	bob := joinPlayer(t, ts, code, "Bob")
	uploadBatch(t, ts, code, alice, srv.cfg.MinPhotosPerBatch)
	uploadBatch(t, ts, code, bob, srv.cfg.MinPhotosPerBatch)

	resp := doRequest(t, ts, http.MethodPost, "/api/rooms/"+code+"/start", map[string]any{
		"player_id": alice,
	})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("start round: status %d", resp.StatusCode)
	}
	srv.autoAdvancePhase(code, phasePlaying, 0)

	resp = doRequest(t, ts, http.MethodPost, "/api/rooms/"+code+"/guesses", map[string]any{
		"player_id":         bob,
		"round":             0,
		"guessed_player_id": alice,
	})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("guess: status %d", resp.StatusCode)
	}

	// The guess countdown for round 0 fires late.
	srv.autoAdvancePhase(code, phaseGuessing, 0)

	game, _ := srv.store.GetGame(code)
	if game.Round != 1 {
		t.Fatalf("expected round 1 after guess plus stale timer, got %d", game.Round)
	}
	used := 0
	for _, photo := range game.Photos {
		if photo.Used {
			used++
		}
	}
	if used != 1 {
		t.Fatalf("expected exactly one retired photo, got %d", used)
	}
}
