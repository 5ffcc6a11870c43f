//nolint:revive,nolintlint // Package name "common" is intentional for shared helpers.
package common

import (
	"context"
	"fmt"
	"os"
	"os/user"

	"google.golang.org/grpc/metadata"
)

// Metadata keys carrying the calling actor.
const (
	metadataHostname = "x-radio-alarm-hostname"
	metadataUsername = "x-radio-alarm-username"
)

// Actor identifies who issued a request, for the daemon's audit log.
type Actor struct {
	// Hostname is the machine the client runs on.
	Hostname string
	// Username is the account running the client.
	Username string
}

// DetectActor gathers host and user information for the audit trail.
func DetectActor() (*Actor, error) {
	hostname, err := os.Hostname()
	if err != nil {
		return nil, fmt.Errorf("hostname: %w", err)
	}

	currentUser, err := user.Current()
	if err != nil {
		return nil, fmt.Errorf("current user: %w", err)
	}

	return &Actor{
		Hostname: hostname,
		Username: currentUser.Username,
	}, nil
}

// String renders the actor as user@host.
func (a *Actor) String() string {
	if a == nil {
		return "unknown"
	}

	return a.Username + "@" + a.Hostname
}

// OutgoingContext attaches the actor to outgoing gRPC metadata.
func (a *Actor) OutgoingContext(ctx context.Context) context.Context {
	if a == nil {
		return ctx
	}

	return metadata.AppendToOutgoingContext(ctx,
		metadataHostname, a.Hostname,
		metadataUsername, a.Username,
	)
}

// ActorFromIncoming extracts the actor a client attached to the request.
// It returns nil when the request carries none.
func ActorFromIncoming(ctx context.Context) *Actor {
	md, ok := metadata.FromIncomingContext(ctx)
	if !ok {
		return nil
	}

	hostnames, usernames := md.Get(metadataHostname), md.Get(metadataUsername)
	if len(hostnames) == 0 && len(usernames) == 0 {
		return nil
	}

	actor := new(Actor)

	if len(hostnames) > 0 {
		actor.Hostname = hostnames[0]
	}

	if len(usernames) > 0 {
		actor.Username = usernames[0]
	}

	return actor
}
