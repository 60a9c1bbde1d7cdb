package provider

import (
	"crypto/ecdsa"
	"fmt"
	"math/big"
	"os"
	"sync"

	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/accounts/keystore"
	"github.com/ethereum/go-ethereum/crypto"
)

// SignerGenerator is an interface for generating geth's *bind.TransactOpts instances and
// providing hash signing capabilities. The operator key produced here is the one that signs
// the multisig batch; it never sends transactions on its own.
type SignerGenerator interface {
	Generate(chainID *big.Int) (*bind.TransactOpts, error)
	SignHash(hash []byte) ([]byte, error)
}

var (
	_ SignerGenerator = (*transactorFromRaw)(nil)
	_ SignerGenerator = (*transactorFromKeystore)(nil)
)

// keySource resolves the private key behind a generator.
type keySource func() (*ecdsa.PrivateKey, error)

func (k keySource) generate(chainID *big.Int) (*bind.TransactOpts, error) {
	privKey, err := k()
	if err != nil {
		return nil, err
	}

	return bind.NewKeyedTransactorWithChainID(privKey, chainID)
}

func (k keySource) signHash(hash []byte) ([]byte, error) {
	privKey, err := k()
	if err != nil {
		return nil, err
	}

	sig, err := crypto.Sign(hash, privKey)
	if err != nil {
		return nil, fmt.Errorf("failed to sign hash: %w", err)
	}

	return sig, nil
}

// TransactorFromRaw returns a generator which creates a transactor from a raw hex private key.
func TransactorFromRaw(privKey string) SignerGenerator {
	return &transactorFromRaw{privKey: privKey}
}

type transactorFromRaw struct {
	privKey string
}

func (g *transactorFromRaw) key() (*ecdsa.PrivateKey, error) {
	privKey, err := crypto.HexToECDSA(trimHexPrefix(g.privKey))
	if err != nil {
		return nil, fmt.Errorf("failed to convert private key to ECDSA: %w", err)
	}

	return privKey, nil
}

// Generate parses the hex encoded private key and returns the bind transactor options.
func (g *transactorFromRaw) Generate(chainID *big.Int) (*bind.TransactOpts, error) {
	return keySource(g.key).generate(chainID)
}

// SignHash signs a hash using the private key stored in the generator.
func (g *transactorFromRaw) SignHash(hash []byte) ([]byte, error) {
	return keySource(g.key).signHash(hash)
}

// TransactorFromKeystore returns a generator backed by an encrypted go-ethereum keystore file.
// The password is requested from passwords once, on first use.
func TransactorFromKeystore(path string, passwords PasswordProvider) SignerGenerator {
	return &transactorFromKeystore{path: path, passwords: passwords}
}

type transactorFromKeystore struct {
	path      string
	passwords PasswordProvider

	once    sync.Once
	privKey *ecdsa.PrivateKey
	err     error
}

func (g *transactorFromKeystore) key() (*ecdsa.PrivateKey, error) {
	g.once.Do(func() {
		g.privKey, g.err = g.decrypt()
	})

	return g.privKey, g.err
}

func (g *transactorFromKeystore) decrypt() (*ecdsa.PrivateKey, error) {
	keyJSON, err := os.ReadFile(g.path)
	if err != nil {
		return nil, fmt.Errorf("failed to read keystore %s: %w", g.path, err)
	}

	password, err := g.passwords.Password(fmt.Sprintf("Password for keystore %s: ", g.path))
	if err != nil {
		return nil, fmt.Errorf("failed to get keystore password: %w", err)
	}

	key, err := keystore.DecryptKey(keyJSON, password)
	if err != nil {
		return nil, fmt.Errorf("failed to decrypt keystore %s: %w", g.path, err)
	}

	return key.PrivateKey, nil
}

// Generate decrypts the keystore and returns the bind transactor options.
func (g *transactorFromKeystore) Generate(chainID *big.Int) (*bind.TransactOpts, error) {
	return keySource(g.key).generate(chainID)
}

// SignHash signs a hash with the decrypted keystore key.
func (g *transactorFromKeystore) SignHash(hash []byte) ([]byte, error) {
	return keySource(g.key).signHash(hash)
}

func trimHexPrefix(s string) string {
	if len(s) >= 2 && s[0] == '0' && (s[1] == 'x' || s[1] == 'X') {
		return s[2:]
	}

	return s
}
