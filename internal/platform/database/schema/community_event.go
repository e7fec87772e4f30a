// Copyright (c) 2026 Comunidad. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package schema

// CommunityEventTable represents the 'events' table
type CommunityEventTable struct {
	Table     string
	ID        string
	Title     string
	StartsAt  string
	CreatedAt string
}

// CommunityEvent is the schema definition for events
var CommunityEvent = CommunityEventTable{
	Table:     "events",
	ID:        "id",
	Title:     "title",
	StartsAt:  "starts_at",
	CreatedAt: "created_at",
}

// CommunitySponsorTable represents the 'sponsors' table
type CommunitySponsorTable struct {
	Table     string
	ID        string
	Name      string
	CreatedAt string
}

// CommunitySponsor is the schema definition for sponsors
var CommunitySponsor = CommunitySponsorTable{
	Table:     "sponsors",
	ID:        "id",
	Name:      "name",
	CreatedAt: "created_at",
}

// CommunityParticipationTable represents the 'event_participations' table
type CommunityParticipationTable struct {
	Table     string
	ID        string
	EventID   string
	ProfileID string
	CreatedAt string
}

// CommunityParticipation is the schema definition for event_participations
var CommunityParticipation = CommunityParticipationTable{
	Table:     "event_participations",
	ID:        "id",
	EventID:   "event_id",
	ProfileID: "profile_id",
	CreatedAt: "created_at",
}
