package media_storage

import (
	"fmt"
	"path"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/khoahotran/folio/internal/application/service"
)

var imageExtensions = map[string]bool{
	".jpg":  true,
	".jpeg": true,
	".png":  true,
	".gif":  true,
	".webp": true,
}

// objectName generates a collision-resistant name. The millisecond stamp
// keeps names sortable; the uuid fragment separates same-millisecond writes.
func objectName(a service.Asset, now time.Time) string {
	suffix := uuid.NewString()[:8]
	ms := now.UnixMilli()

	switch a.Category {
	case service.AssetCV:
		return fmt.Sprintf("cv-%d-%s.pdf", ms, suffix)
	default:
		ext := strings.ToLower(path.Ext(a.Filename))
		if !imageExtensions[ext] {
			ext = ".jpg"
		}
		return fmt.Sprintf("project-%d-%d-%s%s", ms, a.Index, suffix, ext)
	}
}

// refName returns the object name behind ref when ref is a plain child of
// prefix, so refs like "/uploads/../data.json" are never accepted.
func refName(prefix, ref string) (string, bool) {
	p := strings.TrimSuffix(prefix, "/") + "/"
	if !strings.HasPrefix(ref, p) {
		return "", false
	}
	name := strings.TrimPrefix(ref, p)
	if name == "" || name == "." || name == ".." || strings.ContainsAny(name, `/\`) {
		return "", false
	}
	return name, true
}

func joinRef(prefix, name string) string {
	return strings.TrimSuffix(prefix, "/") + "/" + name
}
