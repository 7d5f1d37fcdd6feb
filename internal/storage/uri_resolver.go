// Package storage превращает storage_uri бандла в ссылку для скачивания
// и работает с объектным хранилищем архивов.
package storage

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"
)

// URIResolver превращает storageUri бандла в URL для клиента.
// Пустая строка в ответе означает отсутствие ссылки.
type URIResolver interface {
	Resolve(ctx context.Context, storageURI string) (string, error)
}

// ObjectURLSigner выдает ссылку на объект в бакете.
type ObjectURLSigner interface {
	SignedURL(ctx context.Context, bucket, objectKey string) (string, error)
}

// ObjectURI - разобранная ссылка вида scheme://bucket/key.
type ObjectURI struct {
	Scheme string
	Bucket string
	Key    string
}

func (u ObjectURI) String() string {
	return u.Scheme + "://" + u.Bucket + "/" + u.Key
}

// ParseObjectURI разбирает ссылку на объект хранилища.
func ParseObjectURI(raw string) (ObjectURI, error) {
	u, err := url.Parse(raw)
	if err != nil {
		return ObjectURI{}, fmt.Errorf("%w: %w", ErrInvalidURI, err)
	}
	if u.Scheme == "" || u.Host == "" {
		return ObjectURI{}, fmt.Errorf("%w: %q", ErrInvalidURI, raw)
	}
	key := strings.TrimPrefix(u.Path, "/")
	if key == "" {
		return ObjectURI{}, fmt.Errorf("%w: пустой ключ объекта в %q", ErrInvalidURI, raw)
	}
	return ObjectURI{Scheme: strings.ToLower(u.Scheme), Bucket: u.Host, Key: key}, nil
}

// SchemeResolver выбирает подписчика ссылки по схеме storageUri.
// Ссылки http и https возвращаются без изменений.
type SchemeResolver struct {
	signers map[string]ObjectURLSigner
}

// NewSchemeResolver создает резолвер с явным набором подписчиков по схемам (например, "s3").
func NewSchemeResolver(signers map[string]ObjectURLSigner) *SchemeResolver {
	m := make(map[string]ObjectURLSigner, len(signers))
	for scheme, s := range signers {
		m[strings.ToLower(scheme)] = s
	}
	return &SchemeResolver{signers: m}
}

// Resolve возвращает URL для скачивания архива.
func (r *SchemeResolver) Resolve(ctx context.Context, storageURI string) (string, error) {
	if storageURI == "" {
		return "", nil
	}
	lower := strings.ToLower(storageURI)
	if strings.HasPrefix(lower, "http://") || strings.HasPrefix(lower, "https://") {
		return storageURI, nil
	}

	obj, err := ParseObjectURI(storageURI)
	if err != nil {
		return "", err
	}
	signer, ok := r.signers[obj.Scheme]
	if !ok {
		return "", fmt.Errorf("%w: %s", ErrUnsupportedScheme, obj.Scheme)
	}
	return signer.SignedURL(ctx, obj.Bucket, obj.Key)
}

var _ URIResolver = (*SchemeResolver)(nil)

// Ошибки разрешения ссылок.
var (
	ErrUnsupportedScheme = errors.New("неподдерживаемая схема хранилища")
	ErrInvalidURI        = errors.New("некорректная ссылка на объект хранилища")
)
