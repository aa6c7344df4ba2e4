package sqlguard

import (
	"strings"
	"testing"
)

func TestValidateAcceptsReadOnlyStatements(t *testing.T) {
	cases := []string{
		`SELECT COUNT(*) as total FROM "Participant"`,
		"SELECT 1;",
		"select * from \"Event\" where \"EventDateTimeStart\" >= NOW()",
		`WITH recent AS (SELECT * FROM "Donation" ORDER BY "DonationDate" DESC LIMIT 5) SELECT * FROM recent`,
		"-- leading comment\nSELECT 1",
		"/* block\ncomment */ SELECT \"ParticipantCity\" FROM \"Participant\"",
		"SELECT 1 -- trailing note",
		// Deny-listed words inside identifiers are not whole-word matches.
		`SELECT "RegistrationCreatedAt" FROM "Registration"`,
		`SELECT * FROM "Event" WHERE "EventLocation" = 'Updated Center'`,
	}

	for _, sqlText := range cases {
		if err := Validate(sqlText); err != nil {
			t.Fatalf("Validate(%q) = %v, want nil", sqlText, err)
		}
	}
}

func TestValidateRejections(t *testing.T) {
	cases := []struct {
		name    string
		sqlText string
		reason  string
	}{
		{"empty", "", "invalid format"},
		{"whitespace only", "   \n\t", "invalid format"},
		{"comment only", "-- nothing here", "invalid format"},
		{"insert", `INSERT INTO "Participant" VALUES (1)`, "forbidden keyword: INSERT"},
		{"update after comment", "  -- comment\nUPDATE t SET x=1", "forbidden keyword: UPDATE"},
		{"delete lowercase", `delete from "Donation"`, "forbidden keyword: DELETE"},
		{"drop stacked", `SELECT * FROM t; DROP TABLE t`, "forbidden keyword: DROP"},
		{"truncate", `TRUNCATE "Survey"`, "forbidden keyword: TRUNCATE"},
		{"grant", `GRANT ALL ON "Participant" TO public`, "forbidden keyword: GRANT"},
		{"keyword hidden in block comment", "SELECT 1 /* DROP TABLE t */", "forbidden keyword: DROP"},
		{"stacked selects", "SELECT 1; SELECT 2", "multiple statements not allowed"},
		{"explain", "EXPLAIN SELECT 1", "must start with SELECT or WITH"},
		{"show", "SHOW TABLES", "must start with SELECT or WITH"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := Validate(tc.sqlText)
			if err == nil {
				t.Fatalf("Validate(%q) = nil, want rejection", tc.sqlText)
			}
			violation, ok := err.(*Violation)
			if !ok {
				t.Fatalf("error type = %T, want *Violation", err)
			}
			if violation.Reason != tc.reason {
				t.Fatalf("reason = %q, want %q", violation.Reason, tc.reason)
			}
		})
	}
}

func TestValidateKeywordInCommentStillRejected(t *testing.T) {
	// Comments are stripped before scanning, but a mutation keyword that
	// survives outside comments must still be caught case-insensitively.
	err := Validate("SELECT 1 UNION ALL SELECT 2; dRoP TABLE x")
	if err == nil {
		t.Fatal("expected rejection")
	}
	if !strings.Contains(err.Error(), "DROP") {
		t.Fatalf("error = %v, want DROP named", err)
	}
}

func TestValidateIsIdempotent(t *testing.T) {
	inputs := []string{
		"SELECT 1;",
		"SELECT 1; SELECT 2",
		`UPDATE "Participant" SET "ParticipantCity" = 'Provo'`,
		"",
	}
	for _, input := range inputs {
		first := Validate(input)
		second := Validate(input)
		if (first == nil) != (second == nil) {
			t.Fatalf("verdict changed between runs for %q", input)
		}
		if first != nil && first.Error() != second.Error() {
			t.Fatalf("reason changed between runs for %q", input)
		}
	}
}

func TestIsViolation(t *testing.T) {
	if !IsViolation(Validate("SHOW TABLES")) {
		t.Fatal("IsViolation should be true for a validation rejection")
	}
	if IsViolation(nil) {
		t.Fatal("IsViolation(nil) should be false")
	}
}
