package duplicate

import "testing"

func TestBuildCriteriaNormalizesSignals(t *testing.T) {
	c := BuildCriteria("  Jean.Dupont@ACME.FR ", "  ACME Studio  ", "06 12 34 56 78", AllFields())

	if c.EmailKey != "jean.dupont@acme.fr" {
		t.Errorf("EmailKey = %q, want lowercased trimmed email", c.EmailKey)
	}
	if c.CompanyKey != "acme studio" {
		t.Errorf("CompanyKey = %q, want lowercased trimmed company", c.CompanyKey)
	}
	if c.PhoneKey != "33612345678" {
		t.Errorf("PhoneKey = %q, want 33612345678", c.PhoneKey)
	}
}

func TestBuildCriteriaPhoneSpellingsShareOneKey(t *testing.T) {
	national := BuildCriteria("", "", "0612345678", AllFields())
	international := BuildCriteria("", "", "+33 6 12 34 56 78", AllFields())

	if national.PhoneKey == "" || national.PhoneKey != international.PhoneKey {
		t.Errorf("phone keys differ: national %q, international %q", national.PhoneKey, international.PhoneKey)
	}
}

func TestBuildCriteriaRejectsShortPhoneFragments(t *testing.T) {
	c := BuildCriteria("", "", "123456", AllFields())

	if c.PhoneKey != "" {
		t.Errorf("PhoneKey = %q, want empty for a 6-digit fragment", c.PhoneKey)
	}
	if !c.Empty() {
		t.Error("Criteria.Empty() = false, want true when only a short fragment is given")
	}
}

func TestBuildCriteriaHonorsDisabledFields(t *testing.T) {
	fields := Fields{Email: true}
	c := BuildCriteria("a@b.fr", "Acme", "0612345678", fields)

	if c.EmailKey != "a@b.fr" {
		t.Errorf("EmailKey = %q, want a@b.fr", c.EmailKey)
	}
	if c.CompanyKey != "" || c.PhoneKey != "" {
		t.Errorf("disabled signals leaked into criteria: %+v", c)
	}
}

func TestCriteriaEmpty(t *testing.T) {
	if !(Criteria{}).Empty() {
		t.Error("zero Criteria should be empty")
	}
	if (Criteria{CompanyKey: "acme"}).Empty() {
		t.Error("Criteria with a company key should not be empty")
	}
}
