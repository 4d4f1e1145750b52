package common

// WipeByteArray overwrites b with zeros. Used for passwords and OTP codes
// read from the terminal once they have been sent.
func WipeByteArray(b []byte) {
	for i := range b {
		b[i] = 0
	}
}
