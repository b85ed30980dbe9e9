package browser

import (
	"bytes"
	"context"
	"encoding/gob"
	"time"

	"github.com/dgraph-io/badger/v4"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

var errPageNotFound = badger.ErrKeyNotFound

type cachedPage struct {
	Contents []byte

	ExpiresAt int64
}

// pageCache keeps fetched markup in badger so re-runs over the same
// targets do not hammer the remote source.
type pageCache struct {
	db       *badger.DB
	lifetime time.Duration
}

func (c pageCache) get(ctx context.Context, url string) (cachedPage, error) {
	ctx, span := tracer.Start(ctx, "pagecache:get")
	defer span.End()
	span.SetAttributes(attribute.String("cache_key", url))

	tx := c.db.NewTransaction(false)
	defer tx.Discard()
	item, err := tx.Get([]byte(url))
	if err == badger.ErrKeyNotFound {
		return cachedPage{}, errPageNotFound
	}
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to read item from badger")
		return cachedPage{}, err
	}
	serialized, err := item.ValueCopy(nil)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to copy cached item")
		return cachedPage{}, err
	}

	decoder := gob.NewDecoder(bytes.NewBuffer(serialized))

	var cached cachedPage
	err = decoder.Decode(&cached)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to deserialize cached item")
		return cachedPage{}, err
	}

	if time.Now().Unix() >= cached.ExpiresAt {
		span.AddEvent("delete expired cache key", trace.WithAttributes(
			attribute.String("key", url),
		))

		tx := c.db.NewTransaction(true)
		defer tx.Commit()

		err = tx.Delete([]byte(url))
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, "failed to delete expired key")
			return cachedPage{}, errPageNotFound
		}

		span.SetStatus(codes.Ok, "CACHE EXPIRED")
		return cachedPage{}, errPageNotFound
	}

	span.AddEvent("cache hit", trace.WithAttributes(
		attribute.Int("contentlength", len(cached.Contents)),
	))
	return cached, nil
}

func (c pageCache) set(ctx context.Context, url string, contents []byte) error {
	ctx, span := tracer.Start(ctx, "pagecache:set")
	defer span.End()
	span.SetAttributes(attribute.String("cache_key", url))

	serialized := bytes.NewBuffer(nil)
	encoder := gob.NewEncoder(serialized)
	err := encoder.Encode(cachedPage{
		Contents:  contents,
		ExpiresAt: time.Now().Add(c.lifetime).Unix(),
	})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to serialize page")
		return err
	}

	tx := c.db.NewTransaction(true)
	defer tx.Commit()

	err = tx.Set([]byte(url), serialized.Bytes())
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to set badger item")
		return err
	}

	return nil
}
