package relocate

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"path"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/anthonysurfermx/eth-creators-hackathon/internal/media/sniffer"
	"github.com/anthonysurfermx/eth-creators-hackathon/internal/openai"
)

// AssetSource downloads asset bytes from the provider over the
// authenticated channel; provider URLs are ephemeral and not publicly
// fetchable.
type AssetSource interface {
	DownloadAsset(ctx context.Context, providerJobID string) (io.ReadCloser, int64, error)
}

// Uploader is the durable public store; implemented by storage.ObjectStore.
type Uploader interface {
	Put(ctx context.Context, objectKey string, reader io.Reader, size int64, contentType string) (string, error)
}

// Result carries the URL a ready job is finalized with. Durable is false
// when relocation failed and VideoURL is the provider's expiring URL; such
// rows are flagged for later repair rather than failing the job.
type Result struct {
	VideoURL     string
	ThumbnailURL *string
	Durable      bool
}

type Relocator struct {
	source   AssetSource
	uploader Uploader
	log      zerolog.Logger
}

func NewRelocator(source AssetSource, uploader Uploader, log zerolog.Logger) *Relocator {
	return &Relocator{
		source:   source,
		uploader: uploader,
		log:      log,
	}
}

// Persist downloads the generated asset and republishes it to durable
// storage under a fresh unique key, with the content type detected from
// the payload itself and set explicitly at upload time. Thumbnails are not
// produced in the base flow.
func (r *Relocator) Persist(ctx context.Context, asset openai.AssetRef) (Result, error) {
	degraded := Result{VideoURL: asset.ContentURL, Durable: false}

	body, _, err := r.source.DownloadAsset(ctx, asset.ProviderJobID)
	if err != nil {
		if ctx.Err() != nil {
			return Result{}, ctx.Err()
		}
		r.log.Error().Err(err).Str("provider_job_id", asset.ProviderJobID).
			Msg("asset download failed, keeping provider url")
		return degraded, nil
	}
	defer body.Close()

	data, err := io.ReadAll(body)
	if err != nil {
		if ctx.Err() != nil {
			return Result{}, ctx.Err()
		}
		r.log.Error().Err(err).Str("provider_job_id", asset.ProviderJobID).
			Msg("asset read failed, keeping provider url")
		return degraded, nil
	}

	contentType := "video/mp4"
	ext := "mp4"
	if detected, derr := sniffer.DetectHead(head(data)); derr == nil {
		contentType = detected.MIME
		ext = detected.Type.Ext()
	}

	objectKey := buildObjectKey(ext)

	publicURL, err := r.uploader.Put(ctx, objectKey, bytes.NewReader(data), int64(len(data)), contentType)
	if err != nil {
		if ctx.Err() != nil {
			return Result{}, ctx.Err()
		}
		r.log.Error().Err(err).Str("object_key", objectKey).
			Msg("durable upload failed, keeping provider url")
		return degraded, nil
	}

	r.log.Info().
		Str("object_key", objectKey).
		Str("content_type", contentType).
		Int("size_bytes", len(data)).
		Msg("asset relocated to durable storage")

	return Result{VideoURL: publicURL, Durable: true}, nil
}

func head(data []byte) []byte {
	if len(data) > 512 {
		return data[:512]
	}
	return data
}

func buildObjectKey(ext string) string {
	datePrefix := time.Now().UTC().Format("2006/01/02")
	return path.Join(datePrefix, fmt.Sprintf("%s.%s", uuid.NewString(), ext))
}
