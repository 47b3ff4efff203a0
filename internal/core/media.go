package core

import (
	"context"
	"dentalatlas/internal/blob"
	"dentalatlas/pkg/domain"
	"errors"
	"path"
	"strings"
)

// mediaSlot distinguishes the two media fields of a record; it picks the blob
// key suffix and the absence sentinel.
type mediaSlot struct {
	suffix string
	absent func() domain.MediaReference
}

var (
	imageSlot = mediaSlot{suffix: "", absent: domain.NoImage}
	cbctSlot  = mediaSlot{suffix: "_CBCT", absent: domain.NoFile}
)

// mediaKey builds the blob key for an upload: `<usid><suffix>.<ext>` with the
// extension taken from the submitted filename.
func mediaKey(usid string, slot mediaSlot, filename string) string {
	ext := strings.TrimPrefix(path.Ext(filename), ".")
	if ext == "" {
		ext = "bin"
	}
	return usid + slot.suffix + "." + ext
}

// resolveMedia turns one submission media slot into the persisted reference.
// An upload is stored in the blob store under a key derived from the final
// identifier; on upload failure the slot degrades to the "Upload Failed"
// sentinel and the submission proceeds. A bare link is carried through
// untouched. An empty slot gets the absence sentinel.
func (s *Service) resolveMedia(ctx context.Context, usid string, upload *MediaUpload, link string, slot mediaSlot) domain.MediaReference {
	if upload != nil {
		key := mediaKey(usid, slot, upload.Filename)
		obj, err := s.media.Put(ctx, key, upload.Content, blob.PutOptions{
			ContentType: upload.ContentType,
			USID:        usid,
		})
		if err != nil {
			s.logger.WarnContext(ctx, "media upload failed", "key", key, "error", err)
			return domain.UploadFailed()
		}
		return domain.MediaReference{Kind: domain.MediaObjectStore, Link: s.mediaLink(ctx, obj), Key: obj.Key}
	}
	if trimmed := strings.TrimSpace(link); trimmed != "" {
		return domain.MediaReference{Kind: domain.MediaExternalLink, Link: trimmed}
	}
	return slot.absent()
}

// mediaLink derives a retrievable link for a stored object: the driver
// supplied URL when present, otherwise a minted one, otherwise the bare key.
func (s *Service) mediaLink(ctx context.Context, obj blob.Object) string {
	if obj.URL != "" {
		return obj.URL
	}
	url, err := s.media.ResolveURL(ctx, obj.Key, 0)
	if err != nil {
		if !errors.Is(err, blob.ErrNoURL) {
			s.logger.WarnContext(ctx, "media url resolution failed", "key", obj.Key, "error", err)
		}
		return obj.Key
	}
	return url
}
