package cctp

const (
	// IRIS v1 message endpoints; the domain and signature are appended
	IrisMainnetURL = "https://iris-api.circle.com/v1/messages"
	IrisSandboxURL = "https://iris-api-sandbox.circle.com/v1/messages"

	// Rate limiting
	MaxRequestsPerSecond = 35

	// PendingAttestation is the literal IRIS returns before signing completes
	PendingAttestation = "PENDING"

	// MinAttestationLength is the shortest string accepted as a signed attestation
	MinAttestationLength = 200
)
