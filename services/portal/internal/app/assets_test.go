package app

import (
	"context"
	"strings"
	"testing"

	"campusportal/pkg/domain"
)

func TestUploadProfileAssetReplacesPrevious(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	u := f.signUp(t, "Alex", "alex@test.com", domain.RoleStudent)

	first, err := f.app.UploadProfileAsset(ctx, u.ID, AssetResume, "cv.pdf", strings.NewReader("v1"), 2)
	if err != nil {
		t.Fatalf("upload: %v", err)
	}
	if !strings.HasPrefix(first.ResumeKey, "profiles/"+u.ID+"/resume/") || !strings.HasSuffix(first.ResumeKey, ".pdf") {
		t.Fatalf("unexpected key %q", first.ResumeKey)
	}
	if f.objects.types[first.ResumeKey] != "application/pdf" {
		t.Fatalf("unexpected content type %q", f.objects.types[first.ResumeKey])
	}

	second, err := f.app.UploadProfileAsset(ctx, u.ID, AssetResume, "cv2.pdf", strings.NewReader("v2"), 2)
	if err != nil {
		t.Fatalf("second upload: %v", err)
	}
	if _, ok := f.objects.objects[first.ResumeKey]; ok {
		t.Fatalf("replaced object was not deleted")
	}
	url, err := f.app.ProfileAssetURL(ctx, u.ID, AssetResume)
	if err != nil || !strings.Contains(url, second.ResumeKey) {
		t.Fatalf("presign: %q %v", url, err)
	}
	_, err = f.app.ProfileAssetURL(ctx, u.ID, AssetPicture)
	mustErr(t, err, ErrAssetNotFound)
}

func TestUploadProfileAssetValidation(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	u := f.signUp(t, "Alex", "alex@test.com", domain.RoleStudent)

	_, err := f.app.UploadProfileAsset(ctx, u.ID, AssetPicture, "cv.pdf", strings.NewReader("x"), 1)
	mustErr(t, err, ErrValidation)
	_, err = f.app.UploadProfileAsset(ctx, u.ID, AssetResume, "cv.pdf", strings.NewReader(""), 0)
	mustErr(t, err, ErrValidation)
	_, err = f.app.UploadProfileAsset(ctx, u.ID, AssetResume, "cv.pdf", strings.NewReader("x"), 6<<20)
	mustErr(t, err, ErrValidation)
	_, err = f.app.UploadProfileAsset(ctx, "missing", AssetResume, "cv.pdf", strings.NewReader("x"), 1)
	mustErr(t, err, ErrStudentNotFound)
	if len(f.objects.objects) != 0 {
		t.Fatalf("rejected uploads left objects behind")
	}

	f.app.objects = nil
	_, err = f.app.UploadProfileAsset(ctx, u.ID, AssetResume, "cv.pdf", strings.NewReader("x"), 1)
	mustErr(t, err, ErrAssetStorageDisabled)
}

func TestParseAssetKind(t *testing.T) {
	if k, ok := ParseAssetKind(" Resume "); !ok || k != AssetResume {
		t.Fatalf("expected resume, got %q %v", k, ok)
	}
	if _, ok := ParseAssetKind("video"); ok {
		t.Fatalf("video should be rejected")
	}
}
