package explorer

import (
	"context"

	"github.com/Sternrassler/flare-explorer-client/pkg/pagination"
)

// InternalTransactionWalker walks the internal transactions of txHash,
// starting after startCursor.
func (e *Explorer) InternalTransactionWalker(txHash, startCursor string) *pagination.Walker[InternalTransaction] {
	return pagination.NewWalker(e.InternalTransactionFetcher(txHash), startCursor)
}

// AddressTransactionWalker walks the transactions of address, starting after startCursor.
func (e *Explorer) AddressTransactionWalker(address, startCursor string) *pagination.Walker[Transaction] {
	return pagination.NewWalker(e.AddressTransactionFetcher(address), startCursor)
}

// TokenTransferWalker walks the transfers of a token contract, starting after startCursor.
func (e *Explorer) TokenTransferWalker(contract, startCursor string) *pagination.Walker[TokenTransfer] {
	return pagination.NewWalker(e.TokenTransferFetcher(contract), startCursor)
}

// InternalTransactionFetcher binds GetInternalTransactions to txHash.
func (e *Explorer) InternalTransactionFetcher(txHash string) pagination.Fetcher[InternalTransaction] {
	return func(ctx context.Context, cursor string) (pagination.Page[InternalTransaction], error) {
		return e.GetInternalTransactions(ctx, txHash, cursor)
	}
}

// AddressTransactionFetcher binds GetTransactionsFromAddress to address.
func (e *Explorer) AddressTransactionFetcher(address string) pagination.Fetcher[Transaction] {
	return func(ctx context.Context, cursor string) (pagination.Page[Transaction], error) {
		return e.GetTransactionsFromAddress(ctx, address, cursor)
	}
}

// TokenTransferFetcher binds GetTokenTransfers to contract.
func (e *Explorer) TokenTransferFetcher(contract string) pagination.Fetcher[TokenTransfer] {
	return func(ctx context.Context, cursor string) (pagination.Page[TokenTransfer], error) {
		return e.GetTokenTransfers(ctx, contract, cursor)
	}
}
