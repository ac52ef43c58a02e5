package dto

// SMSRequest is the payload posted by the forwarding device: the raw
// sender id (address) and the message text.
type SMSRequest struct {
	Sender string `json:"sender"`
	Body   string `json:"body"`
}

// SMSResponse reports the pipeline outcome. Status is one of
// persisted, duplicate, rejected, skipped, failed; Reason is set for
// everything except persisted.
type SMSResponse struct {
	Status        string `json:"status"`
	Reason        string `json:"reason,omitempty"`
	TransactionID string `json:"transaction_id,omitempty"`
}
