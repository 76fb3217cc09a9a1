//go:build !js

package nashws

func defaultTransport() Transport {
	return CoderTransport{}
}
