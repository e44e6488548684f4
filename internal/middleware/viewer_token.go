package middleware

import (
	"context"
	"crypto/sha256"
	"time"

	"github.com/2beens/teamcondition/pkg"

	"github.com/coocood/freecache"
	log "github.com/sirupsen/logrus"
)

const verifiedTokenTTL = 10 * time.Minute

type verifiedTokens interface {
	Get(key []byte) ([]byte, error)
	Set(key, value []byte, expireSeconds int) error
}

// ViewerTokenVerifier checks viewer tokens against a bcrypt hash. bcrypt is
// slow on purpose, so accepted tokens are remembered for a while.
type ViewerTokenVerifier struct {
	hash     string
	verified verifiedTokens
}

func NewViewerTokenVerifier(hash string) *ViewerTokenVerifier {
	return &ViewerTokenVerifier{
		hash:     hash,
		verified: freecache.NewCache(512 * 1024),
	}
}

func (v *ViewerTokenVerifier) Verify(_ context.Context, token string) (bool, error) {
	key := sha256.Sum256([]byte(token))
	if _, err := v.verified.Get(key[:]); err == nil {
		return true, nil
	}

	if !pkg.CheckPasswordHash(token, v.hash) {
		return false, nil
	}
	if err := v.verified.Set(key[:], []byte{1}, int(verifiedTokenTTL.Seconds())); err != nil {
		log.Warnf("viewer token verifier: remember token: %s", err)
	}
	return true, nil
}
