// Command devtoken mints an access token signed with the server's JWT key so
// the verification routes can be exercised locally without the identity
// provider.
package main

import (
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/google/uuid"

	jwttoken "landverify/internal/jwt_token"
	"landverify/internal/platform/config"
	id "landverify/pkg/domain"
)

func main() {
	var (
		subject = flag.String("subject", "", "subject UUID (random when empty)")
		role    = flag.String("role", id.RoleSeller.String(), "role claim: seller, buyer or admin")
		name    = flag.String("name", "", "display name claim")
		email   = flag.String("email", "", "email claim")
		ttl     = flag.Duration("ttl", time.Hour, "token lifetime")
	)
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		fail("config: %v", err)
	}

	subjectID := id.SubjectID(uuid.New())
	if *subject != "" {
		if subjectID, err = id.ParseSubjectID(*subject); err != nil {
			fail("invalid --subject: %v", err)
		}
	}
	r, err := id.ParseRole(*role)
	if err != nil {
		fail("invalid --role: %v", err)
	}
	if *ttl <= 0 {
		fail("--ttl must be positive")
	}

	svc := jwttoken.NewJWTService(cfg.Auth.JWTSigningKey, cfg.Auth.JWTIssuer, cfg.Auth.JWTAudience)
	token, err := svc.GenerateAccessToken(subjectID, r, *name, *email, *ttl)
	if err != nil {
		fail("sign token: %v", err)
	}
	fmt.Println(token)
}

func fail(format string, args ...any) {
	fmt.Fprintf(os.Stderr, format+"\n", args...)
	os.Exit(1)
}
