package profile

import (
	"io"
)

// Attachment is one uploaded file. Open may be called once.
type Attachment struct {
	Filename string
	Size     int64
	Open     func() (io.ReadCloser, error)
}

func (a *Attachment) empty() bool {
	return a == nil || a.Size <= 0
}

// ImageAttachment binds an upload to a project record. Explicit parts carry
// their record index; legacy parts are bound by their order of arrival.
type ImageAttachment struct {
	Attachment
	Index    int
	Explicit bool
}

// Submission is the decoded admin form. Nil scalar pointers mean the field
// was not sent at all.
type Submission struct {
	FullName    *string
	JobTitle    *string
	Description *string

	WhatsApp *string
	Telegram *string
	GitHub   *string
	LinkedIn *string
	Email    *string

	ProjectList *string
	CompanyList *string

	CV *Attachment
	// CVRef keeps an already stored CV when no new file is sent.
	CVRef *string

	Images []ImageAttachment
}

func value(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
