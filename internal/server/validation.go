package server

import (
	"errors"
	"fmt"
	"strings"
)

const (
	minNameLength = 2
	maxNameLength = 20
	roomCodeLen   = 6
)

// validateName enforces the 2-20 character display name rule before
// anything touches the store or the channel.
func validateName(name string) (string, error) {
	trimmed := normalizeText(name)
	if len(trimmed) < minNameLength {
		return "", fmt.Errorf("name must be at least %d characters", minNameLength)
	}
	if len(trimmed) > maxNameLength {
		return "", fmt.Errorf("name must be %d characters or fewer", maxNameLength)
	}
	if !isSafeText(trimmed) {
		return "", errors.New("name contains unsupported characters")
	}
	return trimmed, nil
}

// validateRoomCode normalizes a human-entered code: case-insensitive,
// exactly six alphanumeric characters. Anything else is rejected before
// any store or network call.
func validateRoomCode(code string) (string, error) {
	trimmed := strings.ToUpper(strings.TrimSpace(code))
	if len(trimmed) != roomCodeLen {
		return "", fmt.Errorf("room code must be exactly %d characters", roomCodeLen)
	}
	for _, r := range trimmed {
		if r >= 'A' && r <= 'Z' {
			continue
		}
		if r >= '0' && r <= '9' {
			continue
		}
		return "", errors.New("room code contains unsupported characters")
	}
	return trimmed, nil
}

func (s *Server) validateBatchSize(count int) error {
	if count < s.cfg.MinPhotosPerBatch {
		return fmt.Errorf("select at least %d photos", s.cfg.MinPhotosPerBatch)
	}
	if count > s.cfg.MaxPhotosPerBatch {
		return fmt.Errorf("select no more than %d photos", s.cfg.MaxPhotosPerBatch)
	}
	return nil
}

func normalizeText(text string) string {
	fields := strings.Fields(strings.TrimSpace(text))
	return strings.Join(fields, " ")
}

func isSafeText(text string) bool {
	for _, r := range text {
		if r > 127 {
			return false
		}
		if r >= 'a' && r <= 'z' {
			continue
		}
		if r >= 'A' && r <= 'Z' {
			continue
		}
		if r >= '0' && r <= '9' {
			continue
		}
		switch r {
		case ' ', '-', '_', '\'', '.', ',', '!', '?':
			continue
		default:
			return false
		}
	}
	return true
}
