package handlers

import (
	"net/http"

	"github.com/google/uuid"

	"github.com/tendercraft/rfp-engine/pkg/middleware"
)

// orgID reads the acting organization from the request header. The org-scope
// middleware has already validated it by the time a handler runs.
func orgID(r *http.Request) uuid.UUID {
	id, err := uuid.Parse(r.Header.Get(middleware.OrgHeader))
	if err != nil {
		return uuid.Nil
	}
	return id
}

// actor reads the acting user identifier for audit attribution. Empty when
// the caller did not identify a user.
func actor(r *http.Request) string {
	return r.Header.Get(ActorHeader)
}

// actorUUID parses the acting user as a UUID, uuid.Nil when absent or invalid.
func actorUUID(r *http.Request) uuid.UUID {
	id, err := uuid.Parse(r.Header.Get(ActorHeader))
	if err != nil {
		return uuid.Nil
	}
	return id
}
