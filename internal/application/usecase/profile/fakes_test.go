package profile

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/khoahotran/folio/internal/application/service"
	"github.com/khoahotran/folio/internal/domain/profile"
)

type fakeAssets struct {
	mu      sync.Mutex
	objects map[string][]byte
	saves   int
	failOn  int
	deleted []string
}

func newFakeAssets() *fakeAssets {
	return &fakeAssets{objects: map[string][]byte{}}
}

func (f *fakeAssets) Save(_ context.Context, a service.Asset) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.saves++
	if f.failOn == f.saves {
		return "", errors.New("disk full")
	}
	b, err := io.ReadAll(a.Body)
	if err != nil {
		return "", err
	}
	ref := fmt.Sprintf("/uploads/%s-%d-%d", a.Category, a.Index, f.saves)
	f.objects[ref] = b
	return ref, nil
}

func (f *fakeAssets) Delete(_ context.Context, ref string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.objects, ref)
	f.deleted = append(f.deleted, ref)
	return nil
}

func (f *fakeAssets) Exists(_ context.Context, ref string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	_, ok := f.objects[ref]
	return ok, nil
}

func (f *fakeAssets) Owns(ref string) bool {
	return strings.HasPrefix(ref, "/uploads/")
}

func (f *fakeAssets) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.objects)
}

type fakeRepo struct {
	mu       sync.Mutex
	doc      *profile.Document
	writeErr error
	writes   int
}

func newFakeRepo(raw string) *fakeRepo {
	doc, err := profile.ParseDocument([]byte(raw))
	if err != nil {
		panic(err)
	}
	return &fakeRepo{doc: doc}
}

func (r *fakeRepo) Get(context.Context) (*profile.Document, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.doc, nil
}

func (r *fakeRepo) AdminPinHash(context.Context) (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.doc.AdminPinHash(), nil
}

func (r *fakeRepo) ReplaceProfile(_ context.Context, p profile.Profile) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.writeErr != nil {
		return r.writeErr
	}
	next, err := r.doc.WithProfile(p)
	if err != nil {
		return err
	}
	r.doc = next
	r.writes++
	return nil
}

func (r *fakeRepo) SetAdminPinHash(_ context.Context, hash string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.doc = r.doc.WithAdminPinHash(hash)
	return nil
}

type fakePublisher struct {
	events chan service.ProfileEvent
}

func (p *fakePublisher) PublishProfileEvent(_ context.Context, e service.ProfileEvent) error {
	p.events <- e
	return nil
}

func file(name string, data []byte) *Attachment {
	return &Attachment{
		Filename: name,
		Size:     int64(len(data)),
		Open:     func() (io.ReadCloser, error) { return io.NopCloser(bytes.NewReader(data)), nil },
	}
}

func image(i int, data []byte) ImageAttachment {
	return ImageAttachment{Attachment: *file("img.png", data), Index: i, Explicit: true}
}

func positional(data []byte) ImageAttachment {
	return ImageAttachment{Attachment: *file("img.jpg", data)}
}

func str(s string) *string { return &s }

func validSubmission() Submission {
	return Submission{
		FullName:    str("B"),
		JobTitle:    str("Engineer"),
		Description: str("Builds things"),
		GitHub:      str("https://github.com/b"),
		ProjectList: str(`[{"projectName":"P1","jobtitle":"","description":""},{"projectName":"P2","jobtitle":"","description":""}]`),
		CompanyList: str(`[{"companyName":"C","jobtitle":"","description":"","fromYear":"2020","toYear":"now"}]`),
	}
}
