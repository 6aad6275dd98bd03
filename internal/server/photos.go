package server

import (
	"encoding/base64"
	"errors"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
)

// photoStore keeps uploaded photo bytes on disk under
// {dir}/{roomCode}/{key} and hands out the relative storage path used
// as the photo's storage reference.
type photoStore struct {
	dir string
}

func newPhotoStore(dir string) *photoStore {
	return &photoStore{dir: dir}
}

// Save writes one photo and returns its id (the storage key) and the
// relative storage reference resolvable through the /photos/ route.
func (p *photoStore) Save(roomCode string, image []byte) (string, string, error) {
	if len(image) == 0 {
		return "", "", errors.New("no image data")
	}
	key := uuid.NewString()
	relative := roomCode + "/" + key
	full := filepath.Join(p.dir, roomCode, key)
	if err := os.MkdirAll(filepath.Dir(full), 0o755); err != nil {
		return "", "", err
	}
	if err := os.WriteFile(full, image, 0o644); err != nil {
		return "", "", err
	}
	return key, relative, nil
}

func (p *photoStore) Read(storagePath string) ([]byte, error) {
	parts := strings.Split(storagePath, "/")
	if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
		return nil, errors.New("invalid storage path")
	}
	for _, part := range parts {
		if part == "." || part == ".." || strings.ContainsAny(part, `\`) {
			return nil, errors.New("invalid storage path")
		}
	}
	return os.ReadFile(filepath.Join(p.dir, parts[0], parts[1]))
}

func decodeImageData(data string) ([]byte, error) {
	data = strings.TrimSpace(data)
	if data == "" {
		return nil, errors.New("no image data")
	}
	parts := strings.SplitN(data, ",", 2)
	if len(parts) == 2 {
		data = parts[1]
	}
	decoded, err := base64.StdEncoding.DecodeString(data)
	if err != nil {
		return nil, err
	}
	return decoded, nil
}
