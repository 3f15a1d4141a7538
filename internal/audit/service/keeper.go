package service

import (
	"context"
	"encoding/base64"

	"gocloud.dev/secrets"

	apperrors "github.com/moltid/authcore/internal/errors"

	// Register KMS provider drivers
	_ "gocloud.dev/secrets/awskms"
	_ "gocloud.dev/secrets/azurekeyvault"
	_ "gocloud.dev/secrets/gcpkms"
	_ "gocloud.dev/secrets/hashivault"
	_ "gocloud.dev/secrets/localsecrets"
)

// KeyKeeper unwraps the audit root key from its KMS-encrypted form.
type KeyKeeper interface {
	// RootKey decrypts the stored, KMS-wrapped audit root key.
	RootKey(ctx context.Context) ([]byte, error)

	// Close releases the underlying keeper.
	Close() error
}

type kmsKeyKeeper struct {
	keeper       *secrets.Keeper
	encryptedKey []byte
}

// NewKMSKeyKeeper opens the KMS keeper at keyURI and holds the wrapped root
// key. Supported URIs: gcpkms://, awskms://, azurekeyvault://, hashivault://,
// base64key://.
func NewKMSKeyKeeper(ctx context.Context, keyURI, encryptedKeyB64 string) (KeyKeeper, error) {
	encryptedKey, err := base64.StdEncoding.DecodeString(encryptedKeyB64)
	if err != nil {
		return nil, apperrors.Wrap(err, "failed to decode encrypted audit key")
	}

	keeper, err := secrets.OpenKeeper(ctx, keyURI)
	if err != nil {
		return nil, apperrors.Wrap(err, "failed to open KMS keeper")
	}

	return &kmsKeyKeeper{keeper: keeper, encryptedKey: encryptedKey}, nil
}

// RootKey decrypts the wrapped root key.
func (k *kmsKeyKeeper) RootKey(ctx context.Context) ([]byte, error) {
	key, err := k.keeper.Decrypt(ctx, k.encryptedKey)
	if err != nil {
		return nil, apperrors.Wrap(err, "failed to unwrap audit root key")
	}
	return key, nil
}

// Close releases the underlying keeper.
func (k *kmsKeyKeeper) Close() error {
	return k.keeper.Close()
}

// StaticKeyKeeper holds the root key directly. Used in tests and in
// deployments without a KMS.
type StaticKeyKeeper struct {
	Key []byte
}

// RootKey returns the configured key.
func (k *StaticKeyKeeper) RootKey(context.Context) ([]byte, error) {
	return k.Key, nil
}

// Close is a no-op.
func (k *StaticKeyKeeper) Close() error {
	return nil
}
