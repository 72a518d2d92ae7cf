// Package util holds small helpers shared across zmtpfix that don't belong
// to any one protocol layer.
package util

import (
	"errors"
	"io"
	"sync"
)

// CopyThrough bridges two raw connections bidirectionally: lhs -> rhs and
// rhs -> lhs concurrently, closing both before returning. It is the plumbing
// a STREAM/RAW socket's accept loop uses to splice an accepted net.Conn onto
// whatever non-ZMTP byte stream the application is proxying (§4.3's STREAM
// type exchanges raw bytes framed only by a routing-id prefix, with no
// greeting or mechanism — the frames themselves are handed to the
// application, which is free to forward their payloads verbatim onto
// another connection via CopyThrough).
// Returns bytes copied in each direction as [written, read] and every
// io.Copy error joined together.
func CopyThrough(lhs, rhs io.ReadWriteCloser) (lhsb, rhsb []int, err error) {
	var (
		lhsTx, lhsRx       int64
		lhsTxErr, lhsRxErr error
		rhsTx, rhsRx       int64
		rhsTxErr, rhsRxErr error
		wg                 sync.WaitGroup
	)

	wg.Add(2)
	go func() {
		defer wg.Done()
		lhsRx, lhsRxErr = io.Copy(rhs, lhs)
		rhs.Close()
	}()
	go func() {
		defer wg.Done()
		rhsRx, rhsRxErr = io.Copy(lhs, rhs)
		lhs.Close()
	}()
	wg.Wait()

	lhsTx, rhsTx = rhsRx, lhsRx // each side's "sent" count is the other's "received" count

	lhs.Close()
	rhs.Close()

	return []int{int(lhsTx), int(lhsRx)},
		[]int{int(rhsTx), int(rhsRx)},
		errors.Join(lhsTxErr, lhsRxErr, rhsTxErr, rhsRxErr)
}
