// Package ofx imports transactions from OFX/QFX bank and credit card
// statements.
package ofx

import (
	"context"
	"crypto/sha256"
	"fmt"
	"io"
	"log/slog"
	"regexp"
	"sort"
	"strings"

	"github.com/Veraticus/spice-insight/internal/common"
	"github.com/Veraticus/spice-insight/internal/model"
	"github.com/aclindsa/ofxgo"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Parser implements OFX/QFX file parsing.
type Parser struct {
	logger *slog.Logger
	userID string
}

// NewParser creates a parser that assigns imported transactions to userID.
func NewParser(userID string, logger *slog.Logger) *Parser {
	return &Parser{
		userID: userID,
		logger: common.LoggerOrDefault(logger).With("component", "ofx"),
	}
}

// preprocessOFX fixes common formatting issues in OFX files.
func (p *Parser) preprocessOFX(content string) string {
	// Trim any leading whitespace or blank lines before the header
	content = strings.TrimLeft(content, " \t\r\n")

	// Fix mixed-case SEVERITY values (should be INFO, WARN, or ERROR)
	severityRegex := regexp.MustCompile(`(?i)<SEVERITY>(Info|Warn|Error)</SEVERITY>`)
	content = severityRegex.ReplaceAllStringFunc(content, func(match string) string {
		return strings.ToUpper(match)
	})

	// Fix missing closing angle brackets in SGML-style OFX files
	// Match opening tags that are missing their closing bracket
	// Pattern: <TAGNAME at end of line (no > and no content after tag)
	tagFixRegex := regexp.MustCompile(`(?m)^(\s*<[A-Z][A-Z0-9._]*[A-Z0-9])$`)
	content = tagFixRegex.ReplaceAllString(content, "$1>")

	return content
}

// ParseFile parses an OFX/QFX file and returns transactions.
func (p *Parser) ParseFile(_ context.Context, reader io.Reader) ([]model.Transaction, error) {
	// Read and preprocess the content
	content, err := io.ReadAll(reader)
	if err != nil {
		return nil, fmt.Errorf("failed to read OFX file: %w", err)
	}

	processedContent := p.preprocessOFX(string(content))

	// Parse OFX response
	resp, err := ofxgo.ParseResponse(strings.NewReader(processedContent))
	if err != nil {
		return nil, fmt.Errorf("failed to parse OFX file: %w", err)
	}

	var transactions []model.Transaction
	var bankStmts, ccStmts int

	// Process bank messages
	for _, msg := range resp.Bank {
		if stmt, ok := msg.(*ofxgo.StatementResponse); ok {
			bankStmts++
			transactions = append(transactions, p.processBankStatement(stmt)...)
		}
	}

	// Process credit card messages
	for _, msg := range resp.CreditCard {
		if stmt, ok := msg.(*ofxgo.CCStatementResponse); ok {
			ccStmts++
			transactions = append(transactions, p.processCreditCardStatement(stmt)...)
		}
	}

	p.logger.Info("Parsed OFX file",
		"total_transactions", len(transactions),
		"bank_statements", bankStmts,
		"cc_statements", ccStmts)

	return transactions, nil
}

// processBankStatement converts OFX bank transactions to our model.
func (p *Parser) processBankStatement(stmt *ofxgo.StatementResponse) []model.Transaction {
	if stmt.BankTranList == nil {
		return nil
	}
	return p.convertTransactions(stmt.BankTranList.Transactions, string(stmt.BankAcctFrom.AcctID))
}

// processCreditCardStatement converts OFX credit card transactions to our model.
func (p *Parser) processCreditCardStatement(stmt *ofxgo.CCStatementResponse) []model.Transaction {
	if stmt.BankTranList == nil {
		return nil
	}
	return p.convertTransactions(stmt.BankTranList.Transactions, string(stmt.CCAcctFrom.AcctID))
}

func (p *Parser) convertTransactions(ofxTxns []ofxgo.Transaction, accountID string) []model.Transaction {
	transactions := make([]model.Transaction, 0, len(ofxTxns))
	for _, ofxTx := range ofxTxns {
		tx, ok := p.convertTransaction(ofxTx, accountID)
		if !ok {
			p.logger.Warn("Skipping unusable OFX transaction",
				"account", accountID,
				"fitid", string(ofxTx.FiTID))
			continue
		}
		transactions = append(transactions, tx)
	}
	return transactions
}

// convertTransaction converts an OFX transaction to our model. OFX signs
// debits negative; the stored amount is the magnitude and the sign becomes
// the transaction type.
func (p *Parser) convertTransaction(ofxTx ofxgo.Transaction, accountID string) (model.Transaction, bool) {
	description := p.extractMerchantName(ofxTx)
	if description == "" {
		return model.Transaction{}, false
	}

	amount, err := decimal.NewFromString(ofxTx.TrnAmt.FloatString(2))
	if err != nil {
		return model.Transaction{}, false
	}
	txType := model.TypeExpense
	if amount.IsPositive() {
		txType = model.TypeIncome
	}

	tx := model.Transaction{
		UserID:      p.userID,
		Date:        ofxTx.DtPosted.Time,
		Description: description,
		Amount:      amount.Abs(),
		Type:        txType,
	}

	// OFX doesn't provide categories, but some transaction types imply one
	switch fmt.Sprintf("%v", ofxTx.TrnType) {
	case "INT", "DIV":
		if txType == model.TypeIncome {
			tx.Category = model.CategoryIncome
		}
	case "FEE", "SRVCHG":
		if txType == model.TypeExpense {
			tx.Category = model.CategoryBills
		}
	}
	if tx.Category != "" {
		tx.CategorySource = model.SourceRule
	}

	// FITIDs are unique per account, so they make a stable identity across
	// re-imports of overlapping statements.
	if fitID := string(ofxTx.FiTID); fitID != "" {
		key := strings.Join([]string{p.userID, accountID, fitID}, ":")
		tx.ID = uuid.NewSHA1(uuid.NameSpaceOID, []byte(key)).String()
		tx.Hash = fmt.Sprintf("%x", sha256.Sum256([]byte(key)))
	} else {
		tx.ID = uuid.NewString()
		tx.Hash = tx.GenerateHash()
	}

	return tx, true
}

// Bank feeds prepend card-network noise to merchant names.
var merchantPrefixes = []string{
	"POS PURCHASE ",
	"PURCHASE AUTHORIZED ON ",
	"DEBIT CARD PURCHASE ",
	"DEBIT PURCHASE ",
	"CHECK CARD ",
	"ACH DEBIT ",
	"VISA PURCHASE ",
	"MC PURCHASE ",
}

// Names that say nothing about the merchant; MEMO is used instead.
var genericNames = map[string]bool{
	"DEBIT":           true,
	"CREDIT":          true,
	"PURCHASE":        true,
	"PAYMENT":         true,
	"POS TRANSACTION": true,
	"CARD PURCHASE":   true,
}

var leadingDate = regexp.MustCompile(`^\d{2}/\d{2}\s+`)

// extractMerchantName picks the most descriptive of PAYEE, NAME and MEMO
// and strips bank prefixes and a leading MM/DD stamp.
func (p *Parser) extractMerchantName(tx ofxgo.Transaction) string {
	if tx.Payee != nil && tx.Payee.Name != "" {
		return strings.TrimSpace(string(tx.Payee.Name))
	}

	name := strings.TrimSpace(string(tx.Name))
	if tx.Memo != "" && genericNames[strings.ToUpper(name)] {
		name = strings.TrimSpace(string(tx.Memo))
	}

	upper := strings.ToUpper(name)
	for _, prefix := range merchantPrefixes {
		if strings.HasPrefix(upper, prefix) {
			name = name[len(prefix):]
			break
		}
	}

	return strings.TrimSpace(leadingDate.ReplaceAllString(name, ""))
}

// GetAccounts extracts unique account IDs from the OFX file.
func (p *Parser) GetAccounts(_ context.Context, reader io.Reader) ([]string, error) {
	// Read and preprocess the content
	content, err := io.ReadAll(reader)
	if err != nil {
		return nil, fmt.Errorf("failed to read OFX file: %w", err)
	}

	processedContent := p.preprocessOFX(string(content))

	resp, err := ofxgo.ParseResponse(strings.NewReader(processedContent))
	if err != nil {
		return nil, fmt.Errorf("failed to parse OFX file: %w", err)
	}

	accountMap := make(map[string]bool)

	// Bank accounts
	for _, msg := range resp.Bank {
		if stmt, ok := msg.(*ofxgo.StatementResponse); ok {
			if stmt.BankAcctFrom.AcctID != "" {
				accountMap[string(stmt.BankAcctFrom.AcctID)] = true
			}
		}
	}

	// Credit card accounts
	for _, msg := range resp.CreditCard {
		if stmt, ok := msg.(*ofxgo.CCStatementResponse); ok {
			if stmt.CCAcctFrom.AcctID != "" {
				accountMap[string(stmt.CCAcctFrom.AcctID)] = true
			}
		}
	}

	accounts := make([]string, 0, len(accountMap))
	for acct := range accountMap {
		accounts = append(accounts, acct)
	}
	sort.Strings(accounts)

	return accounts, nil
}
