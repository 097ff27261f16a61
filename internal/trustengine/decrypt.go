package trustengine

import (
	"bytes"
	"context"
	"crypto/aes"
	"crypto/cipher"
	"crypto/rsa"
	"crypto/sha1"
	"encoding/base64"
	"encoding/xml"
	"fmt"

	"github.com/saml2validator/ssoval/internal/saml"
)

const (
	algRSA15     = "http://www.w3.org/2001/04/xmlenc#rsa-1_5"
	algRSAOAEP   = "http://www.w3.org/2001/04/xmlenc#rsa-oaep-mgf1p"
	algAES128CBC = "http://www.w3.org/2001/04/xmlenc#aes128-cbc"
	algAES192CBC = "http://www.w3.org/2001/04/xmlenc#aes192-cbc"
	algAES256CBC = "http://www.w3.org/2001/04/xmlenc#aes256-cbc"
)

// Decrypter implements ssocore.Decrypter against a single SP decryption
// key. Real deployments may carry more than one active key during
// rollover; callers needing that should wrap multiple Decrypters and try
// each in turn.
type Decrypter struct {
	PrivateKey *rsa.PrivateKey
}

func NewDecrypter(key *rsa.PrivateKey) *Decrypter {
	return &Decrypter{PrivateKey: key}
}

func (d *Decrypter) DecryptAssertion(ctx context.Context, enc *saml.EncryptedAssertion) (*saml.Assertion, error) {
	if enc == nil || enc.EncryptedData == nil {
		return nil, fmt.Errorf("trustengine: encrypted assertion has no EncryptedData")
	}
	plaintext, err := d.decrypt(enc.EncryptedData, enc.EncryptedKey)
	if err != nil {
		return nil, err
	}
	var a saml.Assertion
	if err := xml.Unmarshal(plaintext, &a); err != nil {
		return nil, fmt.Errorf("trustengine: unmarshal decrypted assertion: %w", err)
	}
	return &a, nil
}

func (d *Decrypter) DecryptNameID(ctx context.Context, enc *saml.EncryptedID) (*saml.NameID, error) {
	if enc == nil || enc.EncryptedData == nil {
		return nil, fmt.Errorf("trustengine: encrypted id has no EncryptedData")
	}
	plaintext, err := d.decrypt(enc.EncryptedData, enc.EncryptedKey)
	if err != nil {
		return nil, err
	}
	var n saml.NameID
	if err := xml.Unmarshal(plaintext, &n); err != nil {
		return nil, fmt.Errorf("trustengine: unmarshal decrypted name id: %w", err)
	}
	return &n, nil
}

func (d *Decrypter) DecryptAttribute(ctx context.Context, enc *saml.EncryptedAttribute) (*saml.Attribute, error) {
	if enc == nil || enc.EncryptedData == nil {
		return nil, fmt.Errorf("trustengine: encrypted attribute has no EncryptedData")
	}
	plaintext, err := d.decrypt(enc.EncryptedData, enc.EncryptedKey)
	if err != nil {
		return nil, err
	}
	var a saml.Attribute
	if err := xml.Unmarshal(plaintext, &a); err != nil {
		return nil, fmt.Errorf("trustengine: unmarshal decrypted attribute: %w", err)
	}
	return &a, nil
}

func (d *Decrypter) decrypt(data *saml.EncryptedData, key *saml.EncryptedKey) ([]byte, error) {
	if d.PrivateKey == nil {
		return nil, fmt.Errorf("trustengine: no SP decryption key configured")
	}
	if key == nil || key.EncryptionMethod == nil {
		return nil, fmt.Errorf("trustengine: EncryptedData has no EncryptedKey to unwrap")
	}
	if data.EncryptionMethod == nil {
		return nil, fmt.Errorf("trustengine: EncryptedData has no EncryptionMethod")
	}

	wrappedKey, err := base64.StdEncoding.DecodeString(key.CipherValue)
	if err != nil {
		return nil, fmt.Errorf("trustengine: decode wrapped key: %w", err)
	}
	symmetricKey, err := unwrapKey(d.PrivateKey, wrappedKey, key.EncryptionMethod.Algorithm)
	if err != nil {
		return nil, fmt.Errorf("trustengine: unwrap symmetric key: %w", err)
	}

	ciphertext, err := base64.StdEncoding.DecodeString(data.CipherValue)
	if err != nil {
		return nil, fmt.Errorf("trustengine: decode cipher value: %w", err)
	}
	return decryptAESCBC(symmetricKey, ciphertext, data.EncryptionMethod.Algorithm)
}

func unwrapKey(priv *rsa.PrivateKey, wrapped []byte, algorithm string) ([]byte, error) {
	switch algorithm {
	case algRSAOAEP:
		return rsa.DecryptOAEP(sha1.New(), nil, priv, wrapped, nil)
	case algRSA15, "":
		return rsa.DecryptPKCS1v15(nil, priv, wrapped)
	default:
		return nil, fmt.Errorf("unsupported key-transport algorithm %q", algorithm)
	}
}

func decryptAESCBC(key, ciphertext []byte, algorithm string) ([]byte, error) {
	switch algorithm {
	case algAES128CBC, algAES192CBC, algAES256CBC:
	default:
		return nil, fmt.Errorf("unsupported block-encryption algorithm %q", algorithm)
	}

	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("build AES cipher: %w", err)
	}
	if len(ciphertext) < aes.BlockSize {
		return nil, fmt.Errorf("ciphertext shorter than one block")
	}
	iv := ciphertext[:aes.BlockSize]
	body := ciphertext[aes.BlockSize:]
	if len(body)%aes.BlockSize != 0 {
		return nil, fmt.Errorf("ciphertext is not a multiple of the block size")
	}

	plaintext := make([]byte, len(body))
	cipher.NewCBCDecrypter(block, iv).CryptBlocks(plaintext, body)
	return unpadPKCS7(plaintext)
}

func unpadPKCS7(data []byte) ([]byte, error) {
	if len(data) == 0 {
		return nil, fmt.Errorf("empty plaintext")
	}
	padLen := int(data[len(data)-1])
	if padLen == 0 || padLen > len(data) || padLen > aes.BlockSize {
		return nil, fmt.Errorf("invalid PKCS7 padding")
	}
	if !bytes.Equal(data[len(data)-padLen:], bytes.Repeat([]byte{byte(padLen)}, padLen)) {
		return nil, fmt.Errorf("invalid PKCS7 padding bytes")
	}
	return data[:len(data)-padLen], nil
}
