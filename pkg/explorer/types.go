package explorer

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/Sternrassler/flare-explorer-client/pkg/pagination"
)

// SmartContract is the verified source attached to a contract address.
type SmartContract struct {
	ABI                string `json:"abi"`
	AddressHash        string `json:"addressHash"`
	CompilerVersion    string `json:"compilerVersion"`
	ContractSourceCode string `json:"contractSourceCode"`
	Name               string `json:"name"`
	Optimization       bool   `json:"optimization"`
}

// Address is an account or contract. ContractCode and SmartContract are nil
// for externally owned accounts.
type Address struct {
	ContractCode                  *string         `json:"contractCode"`
	FetchedCoinBalance            decimal.Decimal `json:"fetchedCoinBalance"`
	FetchedCoinBalanceBlockNumber int64           `json:"fetchedCoinBalanceBlockNumber"`
	SmartContract                 *SmartContract  `json:"smartContract"`
}

// Block is a single chain block.
type Block struct {
	Consensus       bool            `json:"consensus"`
	Difficulty      decimal.Decimal `json:"difficulty"`
	GasLimit        decimal.Decimal `json:"gasLimit"`
	GasUsed         decimal.Decimal `json:"gasUsed"`
	Hash            string          `json:"hash"`
	MinerHash       string          `json:"minerHash"`
	Nonce           string          `json:"nonce"`
	Number          int64           `json:"number"`
	ParentHash      string          `json:"parentHash"`
	Size            int64           `json:"size"`
	Timestamp       time.Time       `json:"timestamp"`
	TotalDifficulty decimal.Decimal `json:"totalDifficulty"`
}

// Transaction is a top-level chain transaction.
type Transaction struct {
	BlockNumber                int64           `json:"blockNumber"`
	CreatedContractAddressHash *string         `json:"createdContractAddressHash"`
	CumulativeGasUsed          decimal.Decimal `json:"cumulativeGasUsed"`
	Error                      *string         `json:"error"`
	FromAddressHash            string          `json:"fromAddressHash"`
	Gas                        decimal.Decimal `json:"gas"`
	GasPrice                   decimal.Decimal `json:"gasPrice"`
	GasUsed                    decimal.Decimal `json:"gasUsed"`
	Hash                       string          `json:"hash"`
	ID                         string          `json:"id"`
	Index                      int64           `json:"index"`
	Input                      string          `json:"input"`
	Nonce                      string          `json:"nonce"`
	R                          decimal.Decimal `json:"r"`
	S                          decimal.Decimal `json:"s"`
	Status                     string          `json:"status"`
	ToAddressHash              string          `json:"toAddressHash"`
	V                          decimal.Decimal `json:"v"`
	Value                      decimal.Decimal `json:"value"`
}

// InternalTransaction is a call made during the execution of a transaction.
type InternalTransaction struct {
	BlockNumber                int64           `json:"blockNumber"`
	CallType                   string          `json:"callType"`
	CreatedContractAddressHash *string         `json:"createdContractAddressHash"`
	CreatedContractCode        *string         `json:"createdContractCode"`
	Error                      *string         `json:"error"`
	FromAddressHash            string          `json:"fromAddressHash"`
	Gas                        decimal.Decimal `json:"gas"`
	GasUsed                    decimal.Decimal `json:"gasUsed"`
	ID                         string          `json:"id"`
	Index                      int64           `json:"index"`
	Init                       *string         `json:"init"`
	Input                      string          `json:"input"`
	Output                     string          `json:"output"`
	ToAddressHash              string          `json:"toAddressHash"`
	TraceAddress               string          `json:"traceAddress"`
	TransactionHash            string          `json:"transactionHash"`
	TransactionIndex           int64           `json:"transactionIndex"`
	Type                       string          `json:"type"`
	Value                      decimal.Decimal `json:"value"`
}

// TokenTransfer is a token movement emitted by a contract. TokenID is only
// valid for non-fungible tokens.
type TokenTransfer struct {
	Amount                   decimal.Decimal     `json:"amount"`
	BlockNumber              int64               `json:"blockNumber"`
	FromAddressHash          string              `json:"fromAddressHash"`
	ID                       string              `json:"id"`
	LogIndex                 int64               `json:"logIndex"`
	ToAddressHash            string              `json:"toAddressHash"`
	TokenContractAddressHash string              `json:"tokenContractAddressHash"`
	TokenID                  decimal.NullDecimal `json:"tokenId"`
	TransactionHash          string              `json:"transactionHash"`
}

// TransactionInfo is a transaction together with the first page of its
// internal transactions.
type TransactionInfo struct {
	Transaction
	InternalTransactions pagination.Page[InternalTransaction] `json:"internalTransactions"`
}
