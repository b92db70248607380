package domain

// CreateTransferParams is the input data for a transfer between two cards.
type CreateTransferParams struct {
	FromCardID int64  `json:"from_card_id"`
	ToCardID   int64  `json:"to_card_id"`
	Amount     string `json:"amount"` // must be positive
}

// TransferResult holds both cards as persisted by the transfer transaction.
type TransferResult struct {
	FromCard Card
	ToCard   Card
}

// TransferResponse is the client-facing transfer outcome with card numbers masked.
type TransferResponse struct {
	FromCard CardResponse `json:"from_card"`
	ToCard   CardResponse `json:"to_card"`
}
