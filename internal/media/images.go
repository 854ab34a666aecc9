package media

import (
	"context"
	"fmt"
	"path"
	"strings"

	"github.com/gabriel-vasile/mimetype"
	"github.com/google/uuid"

	pkgerrors "github.com/tripgather/tripgather-backend/pkg/errors"
	"github.com/tripgather/tripgather-backend/pkg/storage/gcs"
)

// ImageKind names the slot an uploaded group image fills.
type ImageKind string

const (
	ImageKindIcon    ImageKind = "icon"
	ImageKindPicture ImageKind = "picture"
)

var allowedImageTypes = []string{"image/png", "image/jpeg", "image/webp", "image/gif"}

// Service validates and stores group images.
type Service interface {
	UploadGroupImage(ctx context.Context, groupID uuid.UUID, kind ImageKind, body []byte) (string, error)
}

type ServiceParams struct {
	Uploader       gcs.Uploader
	MaxUploadBytes int64
}

type service struct {
	uploader gcs.Uploader
	maxBytes int64
}

func NewService(params ServiceParams) (Service, error) {
	if params.Uploader == nil {
		return nil, fmt.Errorf("uploader required")
	}
	maxBytes := params.MaxUploadBytes
	if maxBytes <= 0 {
		maxBytes = 10 << 20
	}
	return &service{uploader: params.Uploader, maxBytes: maxBytes}, nil
}

func (s *service) UploadGroupImage(ctx context.Context, groupID uuid.UUID, kind ImageKind, body []byte) (string, error) {
	if kind != ImageKindIcon && kind != ImageKindPicture {
		return "", pkgerrors.New(pkgerrors.CodeValidation, "unknown image kind")
	}
	contentType, ext, err := DetectImage(body, s.maxBytes)
	if err != nil {
		return "", err
	}

	object := path.Join("groups", groupID.String(), fmt.Sprintf("%s-%s%s", kind, uuid.NewString(), ext))
	url, err := s.uploader.Upload(ctx, object, contentType, body)
	if err != nil {
		return "", pkgerrors.Wrap(pkgerrors.CodeDependency, err, "upload group image")
	}
	return url, nil
}

// DetectImage sniffs body and returns its mime type and extension when it is
// an accepted image no larger than maxBytes.
func DetectImage(body []byte, maxBytes int64) (string, string, error) {
	if len(body) == 0 {
		return "", "", pkgerrors.New(pkgerrors.CodeValidation, "image is empty")
	}
	if maxBytes > 0 && int64(len(body)) > maxBytes {
		return "", "", pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("image exceeds %d MB", maxBytes>>20))
	}
	detected := mimetype.Detect(body)
	if !mimetype.EqualsAny(detected.String(), allowedImageTypes...) {
		return "", "", pkgerrors.New(pkgerrors.CodeValidation, "image must be "+humanReadableList(allowedImageTypes)).
			WithDetails(map[string]string{"detected": detected.String()})
	}
	contentType, _, _ := strings.Cut(detected.String(), ";")
	return contentType, detected.Extension(), nil
}

func humanReadableList(items []string) string {
	switch len(items) {
	case 0:
		return ""
	case 1:
		return items[0]
	case 2:
		return fmt.Sprintf("%s or %s", items[0], items[1])
	default:
		return fmt.Sprintf("%s, or %s", strings.Join(items[:len(items)-1], ", "), items[len(items)-1])
	}
}
