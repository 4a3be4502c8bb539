package service

import (
	"fmt"
	"mime"
	"strconv"
	"strings"
	"time"

	"github.com/UnendingLoop/TinyRelay/internal/model"
	"golang.org/x/net/http/httpguts"
)

func buildResult(data []byte, contentType string, now time.Time) (*model.RelayResult, error) {
	subtype, err := mediaSubtype(contentType)
	if err != nil {
		return nil, err
	}

	disposition := "attachment; filename=" + fileName(now, subtype)

	// значения пришли снаружи - проверяем перед тем как класть в заголовки
	if !httpguts.ValidHeaderFieldValue(contentType) {
		return nil, fmt.Errorf("%w: %s %q", model.ErrInvalidHeader, model.HeaderContentType, contentType)
	}
	if !httpguts.ValidHeaderFieldValue(disposition) {
		return nil, fmt.Errorf("%w: %s %q", model.ErrInvalidHeader, model.HeaderContentDisposition, disposition)
	}

	return &model.RelayResult{
		Body:               data,
		ContentType:        contentType,
		ContentDisposition: disposition,
	}, nil
}

// mediaSubtype - "image/png" -> "png"; a bare type without subtype is rejected
func mediaSubtype(raw string) (string, error) {
	mediaType, _, err := mime.ParseMediaType(raw)
	if err != nil {
		return "", fmt.Errorf("%w %q: %v", model.ErrMediaType, raw, err)
	}

	_, subtype, ok := strings.Cut(mediaType, "/")
	if !ok || subtype == "" {
		return "", fmt.Errorf("%w %q: missing subtype", model.ErrMediaType, raw)
	}
	return subtype, nil
}

func fileName(now time.Time, subtype string) string {
	return strconv.FormatInt(now.Unix(), 10) + "." + subtype
}
