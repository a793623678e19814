package diamondhands

import (
	"context"
	"time"

	"github.com/mr-tron/base58"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/code-payments/diamondhands/pkg/metrics"
	"github.com/code-payments/diamondhands/pkg/solana"
)

const (
	submitDurationMetricName    = "DiamondHands/SubmitDuration"
	programRejectionsMetricName = "DiamondHands/ProgramRejections"
)

// submit signs and sends a transaction paid for by the first signer, then
// waits for it to reach the session's commitment. It never retries a
// rejected transaction.
func (s *Session) submit(ctx context.Context, signers []Signer, instructions ...solana.Instruction) (solana.Signature, error) {
	log := s.log.WithField("method", "submit")

	if len(signers) == 0 {
		return solana.Signature{}, errors.New("at least one signer is required")
	}

	commitment := s.commitment(ctx)

	blockhash, err := s.sc.GetLatestBlockhash()
	if err != nil {
		return solana.Signature{}, newTransportError("get latest blockhash", err)
	}

	txn := solana.NewTransaction(signers[0].PublicKey(), instructions...)
	txn.SetBlockhash(blockhash)
	for _, signer := range signers {
		if err := signer.Sign(&txn); err != nil {
			return solana.Signature{}, errors.Wrap(err, "failed to sign transaction")
		}
	}

	sig := txn.Signatures[0]
	log = log.WithField("signature", base58.Encode(sig[:]))

	start := time.Now()
	defer func() {
		metrics.RecordDuration(ctx, submitDurationMetricName, time.Since(start))
	}()

	_, err = s.sc.SubmitTransaction(txn, commitment)
	if err != nil {
		var txErr *solana.TransactionError
		if errors.As(err, &txErr) {
			log.WithError(txErr).Debug("transaction rejected on submission")
			metrics.RecordCount(ctx, programRejectionsMetricName, 1)
			return sig, newProgramRejection(sig, txErr, s.program, instructions)
		}
		return sig, newTransportError("submit transaction", err)
	}

	status, err := s.sc.GetSignatureStatus(sig, commitment)
	if err != nil {
		return sig, newTransportError("get signature status", err)
	}
	if status.ErrorResult != nil {
		log.WithError(status.ErrorResult).Debug("transaction failed")
		metrics.RecordCount(ctx, programRejectionsMetricName, 1)
		return sig, newProgramRejection(sig, status.ErrorResult, s.program, instructions)
	}

	log.WithFields(logrus.Fields{
		"slot": status.Slot,
	}).Trace("transaction confirmed")

	return sig, nil
}
