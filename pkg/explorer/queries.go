package explorer

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/Sternrassler/flare-explorer-client/pkg/pagination"
)

// Page sizes per connection. The explorer rejects larger requests as too complex.
const (
	InternalTransactionsPageSize = 5
	AddressTransactionsPageSize  = 5
	TokenTransfersPageSize       = 10

	// MaxBatchAddresses is the largest batch accepted by GetAddresses.
	MaxBatchAddresses = 15
)

const addressFields = `
    contractCode
    fetchedCoinBalance
    fetchedCoinBalanceBlockNumber
    smartContract {
      abi
      addressHash
      compilerVersion
      contractSourceCode
      name
      optimization
    }`

const blockFields = `
    consensus
    difficulty
    gasLimit
    gasUsed
    hash
    minerHash
    nonce
    number
    parentHash
    size
    timestamp
    totalDifficulty`

const transactionFields = `
    blockNumber
    createdContractAddressHash
    cumulativeGasUsed
    error
    fromAddressHash
    gas
    gasPrice
    gasUsed
    hash
    id
    index
    input
    nonce
    r
    s
    status
    toAddressHash
    v
    value`

const internalTransactionFields = `
    blockNumber
    callType
    createdContractAddressHash
    createdContractCode
    error
    fromAddressHash
    gas
    gasUsed
    id
    index
    init
    input
    output
    toAddressHash
    traceAddress
    transactionHash
    transactionIndex
    type
    value`

const tokenTransferFields = `
    amount
    blockNumber
    fromAddressHash
    id
    logIndex
    toAddressHash
    tokenContractAddressHash
    tokenId
    transactionHash`

const pageInfoFields = `
    pageInfo {
      endCursor
      hasNextPage
      hasPreviousPage
      startCursor
    }`

// quote renders s as a GraphQL string literal.
func quote(s string) string {
	b, _ := json.Marshal(s)
	return string(b)
}

// connection renders a connection selection with the given arguments and node fields.
func connection(name, args, nodeFields string) string {
	return fmt.Sprintf("%s(%s) {\n  edges {\n    node {%s\n    }\n  }%s\n}", name, args, nodeFields, pageInfoFields)
}

func addressQuery(hash string) string {
	return fmt.Sprintf("{\n  address(hash: %s) {%s\n  }\n}", quote(hash), addressFields)
}

func addressesQuery(hashes []string) string {
	quoted := make([]string, len(hashes))
	for i, h := range hashes {
		quoted[i] = quote(h)
	}
	return fmt.Sprintf("{\n  addresses(hashes: [%s]) {%s\n  }\n}", strings.Join(quoted, ", "), addressFields)
}

func blockQuery(number int64) string {
	return fmt.Sprintf("{\n  block(number: %d) {%s\n  }\n}", number, blockFields)
}

func transactionQuery(hash string) string {
	return fmt.Sprintf("{\n  transaction(hash: %s) {%s\n  }\n}", quote(hash), transactionFields)
}

func transactionInfoQuery(hash string) string {
	internal := connection("internalTransactions", pagination.Args(InternalTransactionsPageSize, ""), internalTransactionFields)
	return fmt.Sprintf("{\n  transaction(hash: %s) {%s\n%s\n  }\n}", quote(hash), transactionFields, internal)
}

func internalTransactionsQuery(hash, cursor string) string {
	internal := connection("internalTransactions", pagination.Args(InternalTransactionsPageSize, cursor), internalTransactionFields)
	return fmt.Sprintf("{\n  transaction(hash: %s) {\n%s\n  }\n}", quote(hash), internal)
}

func addressTransactionsQuery(hash, cursor string) string {
	txs := connection("transactions", pagination.Args(AddressTransactionsPageSize, cursor), transactionFields)
	return fmt.Sprintf("{\n  address(hash: %s) {\n%s\n  }\n}", quote(hash), txs)
}

func tokenTransfersQuery(contract, cursor string) string {
	args := pagination.Args(TokenTransfersPageSize, cursor, "tokenContractAddressHash: "+quote(contract))
	return fmt.Sprintf("{\n%s\n}", connection("tokenTransfers", args, tokenTransferFields))
}
