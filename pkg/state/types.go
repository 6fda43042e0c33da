package state

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"maps"
	"strings"
	"time"

	"github.com/goliatone/go-appboot/layering"
	"github.com/google/uuid"
)

var ErrETagMismatch = errors.New("state: etag mismatch")

var ErrDomainRequired = errors.New("state: domain is required")

// Ref identifies one persisted snapshot. An empty Environment addresses the
// domain-wide snapshot shared by every environment.
type Ref struct {
	Domain      string
	Environment string
}

// Identifier returns the canonical storage key for r.
func (r Ref) Identifier() (string, error) {
	domain := strings.TrimSpace(r.Domain)
	if domain == "" {
		return "", ErrDomainRequired
	}
	if strings.Contains(domain, "/") {
		return "", fmt.Errorf("state: domain %q must not contain '/'", r.Domain)
	}
	environment := strings.ToLower(strings.TrimSpace(r.Environment))
	if environment == "" {
		return domain, nil
	}
	return domain + "/" + environment, nil
}

// Meta is storage-owned metadata used for provenance and concurrency control.
type Meta struct {
	SnapshotID string            `json:"snapshot_id,omitempty"`
	ETag       string            `json:"etag,omitempty"`
	UpdatedAt  time.Time         `json:"updated_at,omitempty"`
	Extra      map[string]string `json:"extra,omitempty"`
}

func (m Meta) clone() Meta {
	m.Extra = maps.Clone(m.Extra)
	return m
}

// Store loads and saves one snapshot for a single Ref.
type Store interface {
	Load(ctx context.Context, ref Ref) (snapshot layering.Map, meta Meta, ok bool, err error)
	Save(ctx context.Context, ref Ref, snapshot layering.Map, meta Meta) (Meta, error)
}

// Mutator edits a snapshot in place.
type Mutator func(layering.Map) error

// Resolver merges and mutates snapshots held by Store.
type Resolver struct {
	Store Store
	Now   func() time.Time
}

// Resolve merges the domain-wide snapshot with the snapshots of environments
// in order; later snapshots override earlier ones. ok is false when no
// snapshot exists.
func (r Resolver) Resolve(ctx context.Context, domain string, environments ...string) (layering.Map, bool, error) {
	if r.Store == nil {
		return nil, false, fmt.Errorf("state: store is required")
	}
	if domain == "" {
		return nil, false, ErrDomainRequired
	}

	refs := make([]Ref, 0, len(environments)+1)
	refs = append(refs, Ref{Domain: domain})
	for _, environment := range environments {
		if environment != "" {
			refs = append(refs, Ref{Domain: domain, Environment: environment})
		}
	}

	layers := make([]layering.Map, 0, len(refs))
	for _, ref := range refs {
		snapshot, _, ok, err := r.Store.Load(ctx, ref)
		if err != nil {
			return nil, false, fmt.Errorf("state: load %q for environment %q: %w", domain, ref.Environment, err)
		}
		if ok {
			layers = append(layers, snapshot)
		}
	}
	if len(layers) == 0 {
		return nil, false, nil
	}
	return layering.MergeAll(layers...), true, nil
}

// Mutate loads the snapshot for ref, applies fn to a copy and saves it with a
// fresh snapshot ID and ETag. A non-empty meta.ETag must match the stored one.
func (r Resolver) Mutate(ctx context.Context, ref Ref, meta Meta, fn Mutator) (layering.Map, Meta, error) {
	if r.Store == nil {
		return nil, Meta{}, fmt.Errorf("state: store is required")
	}
	if ref.Domain == "" {
		return nil, Meta{}, ErrDomainRequired
	}
	if fn == nil {
		return nil, Meta{}, fmt.Errorf("state: mutator is required")
	}

	snapshot, loadedMeta, ok, err := r.Store.Load(ctx, ref)
	if err != nil {
		return nil, Meta{}, fmt.Errorf("state: load %q for environment %q: %w", ref.Domain, ref.Environment, err)
	}
	if !ok {
		snapshot = layering.Map{}
		loadedMeta = Meta{}
	}

	if meta.ETag != "" && meta.ETag != loadedMeta.ETag {
		return nil, loadedMeta, fmt.Errorf("%w: expected %q, got %q", ErrETagMismatch, meta.ETag, loadedMeta.ETag)
	}

	next := snapshot.Clone()
	if next == nil {
		next = layering.Map{}
	}
	if err := fn(next); err != nil {
		return nil, loadedMeta, err
	}

	etag, err := ETag(next)
	if err != nil {
		return nil, loadedMeta, err
	}
	saveMeta := Meta{
		SnapshotID: uuid.NewString(),
		ETag:       etag,
		UpdatedAt:  r.now(),
		Extra:      loadedMeta.Extra,
	}
	if meta.Extra != nil {
		saveMeta.Extra = meta.Extra
	}

	savedMeta, err := r.Store.Save(ctx, ref, next, saveMeta)
	if err != nil {
		return nil, loadedMeta, fmt.Errorf("state: save %q for environment %q: %w", ref.Domain, ref.Environment, err)
	}
	return next, savedMeta, nil
}

func (r Resolver) now() time.Time {
	if r.Now != nil {
		return r.Now().UTC()
	}
	return time.Now().UTC()
}

// ETag returns a content hash of snapshot. Map keys are encoded in sorted
// order so equal snapshots share an ETag.
func ETag(snapshot layering.Map) (string, error) {
	payload, err := json.Marshal(snapshot.ToAny())
	if err != nil {
		return "", fmt.Errorf("state: etag: %w", err)
	}
	sum := sha256.Sum256(payload)
	return hex.EncodeToString(sum[:12]), nil
}
