package model

import "fmt"

const (
	PresenceEventTypeJoin  = "join"
	PresenceEventTypeLeave = "leave"

	// PresenceEventSortKey is the attribute name of PresenceEventItem.SK.
	PresenceEventSortKey = "sk"
)

// PresenceEventItem is one join or leave recorded in the presence ledger.
// Items are partitioned by room and sorted by time.
type PresenceEventItem struct {
	Room         string `dynamodbav:"room"`
	SK           string `dynamodbav:"sk"`
	EventID      string `dynamodbav:"eventId"`
	Type         string `dynamodbav:"type"`
	ClientID     uint64 `dynamodbav:"clientId"`
	ConnectionID string `dynamodbav:"connectionId"`
	CreatedAt    string `dynamodbav:"createdAt"`
}

func PresenceEventSK(createdAt, eventID string) string {
	return fmt.Sprintf("%s#%s", createdAt, eventID)
}
