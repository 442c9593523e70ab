package service

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/gabriel-vasile/mimetype"

	"github.com/okian/estatecamp/internal/adapters/blob"
	"github.com/okian/estatecamp/internal/domain/model"
	"github.com/okian/estatecamp/pkg/logger"
	"github.com/okian/estatecamp/pkg/metrics"
)

// sniffLen is how much of an upload is read to detect its media type.
const sniffLen = 3072

// Upload is a creative asset file as received from the client.
type Upload struct {
	PersonaID string
	FileName  string
	Body      io.Reader
	// Size is the body length, or -1 when unknown.
	Size int64
}

func assetFolder(personaID string) string {
	return "personas/" + personaID
}

// UploadAsset sniffs the upload's media type, stores the bytes and records
// the asset on the persona. Anything that is not an image or a video is
// rejected with ErrUnsupportedMedia.
func (s *Service) UploadAsset(ctx context.Context, ownerID string, up Upload) (model.CreativeAsset, error) {
	if err := s.running(); err != nil {
		return model.CreativeAsset{}, err
	}
	if _, err := s.store.GetPersona(ctx, ownerID, up.PersonaID); err != nil {
		return model.CreativeAsset{}, err
	}

	head := make([]byte, sniffLen)
	n, err := io.ReadFull(up.Body, head)
	if err != nil && !errors.Is(err, io.ErrUnexpectedEOF) && !errors.Is(err, io.EOF) {
		return model.CreativeAsset{}, fmt.Errorf("read upload: %w", err)
	}
	if n == 0 {
		return model.CreativeAsset{}, ErrEmptyUpload
	}
	head = head[:n]

	mt := mimetype.Detect(head)
	mediaType, _, _ := strings.Cut(mt.String(), "/")
	if mediaType != model.AssetImage && mediaType != model.AssetVideo {
		return model.CreativeAsset{}, fmt.Errorf("%w: got %s", ErrUnsupportedMedia, mt.String())
	}

	key := blob.Key(assetFolder(up.PersonaID), up.FileName)
	url, err := s.blobs.Put(ctx, key, mt.String(), io.MultiReader(bytes.NewReader(head), up.Body), up.Size)
	if err != nil {
		return model.CreativeAsset{}, fmt.Errorf("store asset: %w", err)
	}

	asset := model.CreativeAsset{
		PersonaID: up.PersonaID,
		Name:      up.FileName,
		Type:      mediaType,
		URL:       url,
	}
	if err := s.store.AddAsset(ctx, ownerID, &asset); err != nil {
		if derr := s.blobs.Delete(ctx, key); derr != nil {
			s.logger.Warn(ctx, "orphaned asset blob", logger.String("key", key), logger.Error(derr))
		}
		return model.CreativeAsset{}, err
	}

	metrics.RecordAssetUploaded(mediaType)
	s.logger.Info(ctx, "asset uploaded",
		logger.String("persona_id", up.PersonaID),
		logger.String("type", mt.String()),
		logger.String("key", key),
	)
	return asset, nil
}

// DeleteAsset removes the asset record and its stored bytes.
func (s *Service) DeleteAsset(ctx context.Context, ownerID, id string) error {
	if err := s.running(); err != nil {
		return err
	}
	asset, err := s.store.GetAsset(ctx, ownerID, id)
	if err != nil {
		return err
	}
	if err := s.store.DeleteAsset(ctx, ownerID, id); err != nil {
		return err
	}
	if key, ok := blobKey(asset); ok {
		if err := s.blobs.Delete(ctx, key); err != nil {
			s.logger.Warn(ctx, "delete asset blob", logger.String("key", key), logger.Error(err))
		}
	}
	return nil
}

// OpenBlob streams a stored object. Used to serve assets kept in memory.
func (s *Service) OpenBlob(ctx context.Context, key string) (blob.Object, error) {
	if err := s.running(); err != nil {
		return blob.Object{}, err
	}
	return s.blobs.Open(ctx, key)
}

// blobKey recovers the object key from an asset URL. Both stores build
// URLs as base + "/" + key, and keys start with the persona folder.
func blobKey(a model.CreativeAsset) (string, bool) {
	folder := assetFolder(a.PersonaID) + "/"
	i := strings.Index(a.URL, folder)
	if i < 0 {
		return "", false
	}
	return a.URL[i:], true
}
