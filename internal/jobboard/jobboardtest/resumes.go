package jobboardtest

import (
	"context"
	"fmt"
	"io"
	"sync"
	"time"

	"jober/internal/storage/objects"
)

// Resumes keeps uploaded résumés in memory
type Resumes struct {
	mu sync.Mutex

	UploadErr error
	RemoveErr error

	Objects map[string][]byte
	Removed []string
}

func NewResumes() *Resumes {
	return &Resumes{Objects: map[string][]byte{}}
}

func (r *Resumes) Upload(ctx context.Context, userID int64, file objects.Upload) (string, error) {
	if err := objects.ValidateResume(file); err != nil {
		return "", err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if r.UploadErr != nil {
		return "", r.UploadErr
	}

	data, err := io.ReadAll(file.Content)
	if err != nil {
		return "", err
	}

	key := objects.ResumeKey(userID, file.Filename, time.Now())
	for {
		if _, exists := r.Objects[key]; !exists {
			break
		}
		key += "_"
	}
	r.Objects[key] = data
	return key, nil
}

func (r *Resumes) URL(ctx context.Context, key string) (string, error) {
	return fmt.Sprintf("https://storage.test/resumes/%s?signed=1", key), nil
}

func (r *Resumes) Remove(ctx context.Context, key string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.RemoveErr != nil {
		return r.RemoveErr
	}
	delete(r.Objects, key)
	r.Removed = append(r.Removed, key)
	return nil
}

func (r *Resumes) Count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.Objects)
}
