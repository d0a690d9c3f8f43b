package http

import (
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"slices"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	profileUC "github.com/khoahotran/folio/internal/application/usecase/profile"
	"github.com/khoahotran/folio/pkg/apperror"
)

const (
	fieldCV            = "cv"
	fieldProjectImages = "projectImages"
)

type ProfileHandler struct {
	saveProfileUseCase *profileUC.SaveProfileUseCase
	getProfileUseCase  *profileUC.GetProfileUseCase
	maxBodyBytes       int64
}

func NewProfileHandler(saveUC *profileUC.SaveProfileUseCase, getUC *profileUC.GetProfileUseCase, maxBodyBytes int64) *ProfileHandler {
	return &ProfileHandler{
		saveProfileUseCase: saveUC,
		getProfileUseCase:  getUC,
		maxBodyBytes:       maxBodyBytes,
	}
}

func (h *ProfileHandler) GetProfile(c *gin.Context) {
	output, err := h.getProfileUseCase.Execute(c.Request.Context())
	if err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusOK, profileResponse{Profile: output.Profile})
}

func (h *ProfileHandler) SaveProfile(c *gin.Context) {
	if h.maxBodyBytes > 0 {
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, h.maxBodyBytes)
	}
	form, err := c.MultipartForm()
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			c.Error(apperror.NewInvalidInput("Request body too large", err))
			return
		}
		c.Error(apperror.NewInvalidInput("Malformed multipart body", err))
		return
	}
	defer form.RemoveAll()

	sub, err := decodeSubmission(form)
	if err != nil {
		c.Error(err)
		return
	}

	if _, err := h.saveProfileUseCase.Execute(c.Request.Context(), sub); err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusOK, saveProfileResponse{Success: true})
}

func decodeSubmission(form *multipart.Form) (profileUC.Submission, error) {
	sub := profileUC.Submission{
		FullName:    formValue(form, "fullname"),
		JobTitle:    formValue(form, "jobtitle"),
		Description: formValue(form, "description"),
		WhatsApp:    formValue(form, "whatsapp"),
		Telegram:    formValue(form, "telegram"),
		GitHub:      formValue(form, "github"),
		LinkedIn:    formValue(form, "linkedin"),
		Email:       formValue(form, "email"),
		ProjectList: formValue(form, "projectList"),
		CompanyList: formValue(form, "companyList"),
	}

	if files := form.File[fieldCV]; len(files) > 0 {
		sub.CV = attachment(files[0])
	} else {
		sub.CVRef = formValue(form, fieldCV)
	}

	for _, fh := range form.File[fieldProjectImages] {
		sub.Images = append(sub.Images, profileUC.ImageAttachment{Attachment: *attachment(fh)})
	}

	keys := make([]string, 0, len(form.File))
	for key := range form.File {
		keys = append(keys, key)
	}
	slices.Sort(keys)
	for _, key := range keys {
		rest, ok := strings.CutPrefix(key, fieldProjectImages+"[")
		if !ok {
			continue
		}
		idx, err := strconv.Atoi(strings.TrimSuffix(rest, "]"))
		if err != nil || !strings.HasSuffix(rest, "]") {
			return sub, apperror.NewInvalidInput(fmt.Sprintf("Malformed image field %q", key), err)
		}
		for _, fh := range form.File[key] {
			sub.Images = append(sub.Images, profileUC.ImageAttachment{
				Attachment: *attachment(fh),
				Index:      idx,
				Explicit:   true,
			})
		}
	}
	return sub, nil
}

func formValue(form *multipart.Form, key string) *string {
	vals, ok := form.Value[key]
	if !ok || len(vals) == 0 {
		return nil
	}
	return &vals[0]
}

func attachment(fh *multipart.FileHeader) *profileUC.Attachment {
	return &profileUC.Attachment{
		Filename: fh.Filename,
		Size:     fh.Size,
		Open:     func() (io.ReadCloser, error) { return fh.Open() },
	}
}
