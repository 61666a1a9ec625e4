package profile

// ProfileSubmitOutput for POST /submit-profile
type ProfileSubmitOutput struct {
	Body Profile
}

// ProfileGetOutput for GET /profile
type ProfileGetOutput struct {
	Body Profile
}
