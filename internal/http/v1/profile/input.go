package profile

// ProfileSubmitInput for POST /submit-profile. Blank required fields are
// rejected by the handler so the problem detail names the field.
type ProfileSubmitInput struct {
	Body struct {
		Name    string `json:"name"                    maxLength:"200" required:"true"  doc:"Full name"        example:"Jane Doe"`
		Email   string `json:"email,omitempty"         maxLength:"254" required:"false" doc:"Email address"    example:"jane@example.com"`
		Address string `json:"address"                 maxLength:"500" required:"true"  doc:"Pickup address"   example:"1 Elm St"`
		Vehicle string `json:"vehicle,omitempty"       maxLength:"200" required:"false" doc:"Vehicle"          example:"Blue minivan"`
		Kids    string `json:"kids,omitempty"          maxLength:"10"  required:"false" doc:"Number of kids"   example:"2"`
	}
}

// ProfileGetInput for GET /profile (no body needed)
type ProfileGetInput struct{}
