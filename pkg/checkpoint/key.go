package checkpoint

import (
	"fmt"
	"sort"
	"strings"
)

// KeyPrefix starts every checkpoint key in Redis.
const KeyPrefix = "flare:walk"

// Key identifies one walk over one collection.
type Key struct {
	// Resource is the collection name (e.g., "token_transfers")
	Resource string

	// Args are the arguments selecting the collection (e.g., {"contract": "0x..."})
	Args map[string]string
}

// String generates a deterministic key string.
// Format: flare:walk:resource:arg1=val1:arg2=val2
//
// Example:
//
//	flare:walk:token_transfers:contract=0x1d80c49bbbcd1c0911346656b529df9e5c2f783d
func (k Key) String() string {
	parts := []string{KeyPrefix}

	resource := strings.Trim(k.Resource, ":")
	if resource != "" {
		parts = append(parts, resource)
	}

	// Sorted for determinism
	if len(k.Args) > 0 {
		names := make([]string, 0, len(k.Args))
		for name := range k.Args {
			names = append(names, name)
		}
		sort.Strings(names)

		for _, name := range names {
			parts = append(parts, fmt.Sprintf("%s=%s", name, k.Args[name]))
		}
	}

	return strings.Join(parts, ":")
}

// TokenTransfersKey is the key for a walk over the transfers of contract.
func TokenTransfersKey(contract string) Key {
	return Key{Resource: "token_transfers", Args: map[string]string{"contract": strings.ToLower(contract)}}
}

// InternalTransactionsKey is the key for a walk over the internal transactions of txHash.
func InternalTransactionsKey(txHash string) Key {
	return Key{Resource: "internal_transactions", Args: map[string]string{"transaction": strings.ToLower(txHash)}}
}

// AddressTransactionsKey is the key for a walk over the transactions of address.
func AddressTransactionsKey(address string) Key {
	return Key{Resource: "address_transactions", Args: map[string]string{"address": strings.ToLower(address)}}
}
