package shell

import (
	"encoding/json"
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/louisbranch/ringledger/internal/services/console/backend"
	"github.com/louisbranch/ringledger/internal/services/console/flow"
)

var slots = []string{
	"register",
	"escrow-prepare",
	"escrow-reconcile",
	"escrow-confirm",
	"result",
	"payout-prepare",
	"payout-reconcile",
	"payout-confirm",
}

func (s *Shell) show(args []string) error {
	if len(args) != 1 {
		return fmt.Errorf("usage: show <%s>", strings.Join(slots, "|"))
	}
	snapshot := s.console.Snapshot()
	switch args[0] {
	case "register":
		return s.showJSON(snapshot.Register)
	case "escrow-prepare":
		if snapshot.Escrow.Prepare == nil {
			return s.showJSON(nil)
		}
		s.escrowItems(snapshot.Escrow.Prepare)
		return nil
	case "escrow-reconcile":
		return s.showJSON(snapshot.Escrow.Reconcile)
	case "escrow-confirm":
		return s.showJSON(snapshot.Escrow.Confirm)
	case "result":
		return s.showJSON(snapshot.Payout.Result)
	case "payout-prepare":
		if snapshot.Payout.Prepare == nil {
			return s.showJSON(nil)
		}
		s.payoutItems(snapshot.Payout.Prepare)
		return nil
	case "payout-reconcile":
		return s.showJSON(snapshot.Payout.Reconcile)
	case "payout-confirm":
		return s.showJSON(snapshot.Payout.Confirm)
	default:
		return fmt.Errorf("unknown slot %q", args[0])
	}
}

func (s *Shell) showJSON(value any) error {
	raw, err := json.MarshalIndent(value, "", "  ")
	if err != nil {
		return fmt.Errorf("render json: %w", err)
	}
	fmt.Fprintln(s.out, string(raw))
	return nil
}

func (s *Shell) escrowItems(resp *backend.EscrowPrepareResponse) {
	fmt.Fprintf(s.out, "bout %s\n", resp.BoutID)
	w := tabwriter.NewWriter(s.out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "KIND\tESCROW\tAMOUNT\tDESTINATION\tPAYLOAD\tSIGN")
	for _, item := range resp.Escrows {
		destination, _ := flow.RequiredString(item.UnsignedTx, "Destination")
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\n",
			item.EscrowKind,
			item.EscrowID,
			s.drops(item.UnsignedTx),
			destination,
			item.SignRequest.PayloadID,
			item.SignRequest.DeepLinkURL,
		)
	}
	_ = w.Flush()
}

func (s *Shell) payoutItems(resp *backend.PayoutPrepareResponse) {
	fmt.Fprintf(s.out, "bout %s (%s)\n", resp.BoutID, resp.BoutStatus)
	w := tabwriter.NewWriter(s.out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "KIND\tESCROW\tACTION\tTRANSACTION\tOFFER\tPAYLOAD\tSIGN")
	for _, item := range resp.Escrows {
		txType, _ := item.UnsignedTx["TransactionType"].(string)
		offer := "-"
		if sequence, err := flow.RequiredInt(item.UnsignedTx, "OfferSequence"); err == nil {
			offer = fmt.Sprintf("%d", sequence)
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\t%s\n",
			item.EscrowKind,
			item.EscrowID,
			item.Action,
			txType,
			offer,
			item.SignRequest.PayloadID,
			item.SignRequest.DeepLinkURL,
		)
	}
	_ = w.Flush()
}

// drops renders the escrow amount with digit grouping, or the raw value when
// it is not an integer.
func (s *Shell) drops(tx backend.UnsignedTx) string {
	raw, err := flow.RequiredString(tx, "Amount")
	if err != nil {
		return "-"
	}
	amount, err := flow.ParseRequiredInteger(raw, "Amount")
	if err != nil {
		return raw
	}
	return s.printer.Sprintf("%d drops", amount)
}
