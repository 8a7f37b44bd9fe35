package importer

import (
	"github.com/cleared-dev/budget/internal/model"
)

const (
	capOneMinFields = 7
	capOneColDate   = 0
	capOneColDesc   = 3
	capOneColDebit  = 5
	capOneColCredit = 6

	capOneCashBack = "CREDIT-CASH BACK REWARD"
)

// parseCapitalOneRow flips debits negative. Credits are kept only for
// cash back; other credits are card payments tracked in the USAA feed.
func (p *Parser) parseCapitalOneRow(rec []string) (model.Transaction, bool, error) {
	if err := requireFields(OriginCapitalOne, rec, capOneMinFields); err != nil {
		return model.Transaction{}, false, err
	}

	desc := rec[capOneColDesc]

	var txn model.Transaction
	if credit := rec[capOneColCredit]; credit != "" {
		if desc != capOneCashBack {
			return model.Transaction{}, false, nil
		}
		amount, err := parseAmount(OriginCapitalOne, "credit", credit)
		if err != nil {
			return model.Transaction{}, false, err
		}
		txn.Amount = amount
	} else {
		debit, err := parseAmount(OriginCapitalOne, "debit", rec[capOneColDebit])
		if err != nil {
			return model.Transaction{}, false, err
		}
		txn.Amount = debit.Neg()
	}

	date, err := parseDate(OriginCapitalOne, rec[capOneColDate])
	if err != nil {
		return model.Transaction{}, false, err
	}

	txn.Date = date
	txn.Card = model.CardCapitalOne
	txn.Description = p.normalizer.Normalize(desc)
	return txn, true, nil
}
