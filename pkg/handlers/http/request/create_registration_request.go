package request

type CreateRegistrationRequest struct {
	FirstName            string `json:"first_name"`
	LastName             string `json:"last_name"`
	Email                string `json:"email"`
	Phone                string `json:"phone,omitempty"`
	Tier                 string `json:"tier,omitempty"`
	DietaryRequirements  string `json:"dietary_requirements,omitempty"`
	PlatformAcknowledged string `json:"platform_acknowledged,omitempty"`
}

// ToValues flattens the request for the guard pipeline. Field-level
// validation happens there, not here.
func (r *CreateRegistrationRequest) ToValues() map[string]string {
	return map[string]string{
		"first_name":            r.FirstName,
		"last_name":             r.LastName,
		"email":                 r.Email,
		"phone":                 r.Phone,
		"tier":                  r.Tier,
		"dietary_requirements":  r.DietaryRequirements,
		"platform_acknowledged": r.PlatformAcknowledged,
	}
}
