package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"mime"
	"path"
	"strings"

	"campusportal/internal/util"
	"campusportal/pkg/domain"
	"campusportal/pkg/storage"
	"campusportal/pkg/store"
)

// AssetKind names an uploadable profile file.
type AssetKind string

const (
	AssetResume  AssetKind = "resume"
	AssetPicture AssetKind = "picture"
)

var assetExtensions = map[AssetKind][]string{
	AssetResume:  {".pdf", ".doc", ".docx"},
	AssetPicture: {".png", ".jpg", ".jpeg", ".gif", ".webp"},
}

// ParseAssetKind accepts "resume" or "picture".
func ParseAssetKind(s string) (AssetKind, bool) {
	kind := AssetKind(strings.ToLower(strings.TrimSpace(s)))
	_, ok := assetExtensions[kind]
	return kind, ok
}

func assetKey(p domain.StudentProfile, kind AssetKind) string {
	if kind == AssetResume {
		return p.ResumeKey
	}
	return p.PictureKey
}

func setAssetKey(p *domain.StudentProfile, kind AssetKind, key string) {
	if kind == AssetResume {
		p.ResumeKey = key
		return
	}
	p.PictureKey = key
}

func checkExtension(kind AssetKind, filename string) (string, error) {
	ext := strings.ToLower(path.Ext(filename))
	for _, allowed := range assetExtensions[kind] {
		if ext == allowed {
			return ext, nil
		}
	}
	return "", invalidf("unsupported %s file type %q", kind, ext)
}

// UploadProfileAsset stores a resume or picture and records its key on the
// student's profile. The previous object, if any, is removed afterwards.
func (a *App) UploadProfileAsset(ctx context.Context, userID string, kind AssetKind, filename string, r io.Reader, size int64) (domain.StudentProfile, error) {
	if a.objects == nil {
		return domain.StudentProfile{}, ErrAssetStorageDisabled
	}
	if _, ok := assetExtensions[kind]; !ok {
		return domain.StudentProfile{}, invalidf("unknown asset kind %q", kind)
	}
	ext, err := checkExtension(kind, filename)
	if err != nil {
		return domain.StudentProfile{}, err
	}
	if size <= 0 {
		return domain.StudentProfile{}, invalidf("empty file")
	}
	if size > a.maxAssetBytes {
		return domain.StudentProfile{}, invalidf("file too large")
	}
	if _, ok, err := a.GetStudentProfile(ctx, userID); err != nil {
		return domain.StudentProfile{}, err
	} else if !ok {
		return domain.StudentProfile{}, ErrStudentNotFound
	}

	key := storage.AssetKey(userID, string(kind), filename, util.NewID())
	contentType := mime.TypeByExtension(ext)
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	if err := a.objects.Put(ctx, key, io.LimitReader(r, size), size, contentType); err != nil {
		return domain.StudentProfile{}, fmt.Errorf("store %s: %w", kind, err)
	}

	var (
		res    domain.StudentProfile
		oldKey string
	)
	err = a.store.Update(ctx, func(tx *store.Tx) error {
		p, ok := tx.StudentProfile(userID)
		if !ok {
			return ErrStudentNotFound
		}
		oldKey = assetKey(p, kind)
		setAssetKey(&p, kind, key)
		p.UpdatedAt = a.now()
		res = p
		return tx.PutStudentProfile(p)
	})
	if err != nil {
		_ = a.objects.Delete(context.WithoutCancel(ctx), key)
		return domain.StudentProfile{}, err
	}
	if oldKey != "" {
		if err := a.objects.Delete(ctx, oldKey); err != nil {
			util.LoggerFromContext(ctx).Warn("delete replaced asset failed", "key", oldKey, "err", err)
		}
	}
	return res, nil
}

// ProfileAssetURL returns a short-lived download URL for a stored asset.
func (a *App) ProfileAssetURL(ctx context.Context, userID string, kind AssetKind) (string, error) {
	if a.objects == nil {
		return "", ErrAssetStorageDisabled
	}
	p, ok, err := a.GetStudentProfile(ctx, userID)
	if err != nil {
		return "", err
	}
	if !ok {
		return "", ErrStudentNotFound
	}
	key := assetKey(p, kind)
	if key == "" {
		return "", ErrAssetNotFound
	}
	url, err := a.objects.PresignGet(ctx, key, a.presignExpiry)
	if errors.Is(err, storage.ErrObjectNotFound) {
		return "", ErrAssetNotFound
	}
	if err != nil {
		return "", fmt.Errorf("presign %s: %w", kind, err)
	}
	return url, nil
}
