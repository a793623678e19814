package diamondhands

import (
	"context"
	"crypto/ed25519"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/code-payments/diamondhands/pkg/solana"
	diamondhands_program "github.com/code-payments/diamondhands/pkg/solana/diamondhands"
	"github.com/code-payments/diamondhands/pkg/solana/token"
)

const metricsStructName = "diamondhands.session"

// Session binds a ledger connection to a DiamondHands program. It is
// immutable once constructed and safe for concurrent use. Signers are not
// part of the session and are passed to each operation that submits a
// transaction.
type Session struct {
	log     *logrus.Entry
	conf    *conf
	sc      solana.Client
	tc      *token.Client
	program ed25519.PublicKey
	now     func() time.Time
}

type Option func(*Session)

// WithProgram targets a program deployed at an address other than the
// well known DiamondHands program id.
func WithProgram(program ed25519.PublicKey) Option {
	return func(s *Session) {
		s.program = append(ed25519.PublicKey{}, program...)
	}
}

func WithConfig(provider ConfigProvider) Option {
	return func(s *Session) {
		s.conf = provider()
	}
}

// WithClock sets the clock used to compute unlock timestamps.
func WithClock(now func() time.Time) Option {
	return func(s *Session) {
		s.now = now
	}
}

func WithLogger(log *logrus.Entry) Option {
	return func(s *Session) {
		s.log = log
	}
}

func NewSession(sc solana.Client, opts ...Option) *Session {
	s := &Session{
		log:     logrus.StandardLogger().WithField("type", "diamondhands/session"),
		sc:      sc,
		tc:      token.NewClient(sc),
		program: diamondhands_program.PROGRAM_ID,
		now:     time.Now,
	}

	for _, opt := range opts {
		opt(s)
	}

	if s.conf == nil {
		s.conf = WithEnvConfigs()()
	}

	return s
}

// Program returns the program id the session derives addresses for and
// submits instructions to.
func (s *Session) Program() ed25519.PublicKey {
	return append(ed25519.PublicKey{}, s.program...)
}

func (s *Session) commitment(ctx context.Context) solana.Commitment {
	level := s.conf.commitment.Get(ctx)

	commitment, err := solana.ParseCommitment(level)
	if err != nil {
		s.log.WithError(err).Warn("invalid commitment configured, using default")
		return solana.CommitmentConfirmed
	}
	return commitment
}
