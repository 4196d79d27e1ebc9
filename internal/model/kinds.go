package model

// Format identifies the essence a source, flow or receiver deals in.
type Format string

// Essence formats as URNs defined by IS-04.
const (
	FormatVideo Format = "urn:x-nmos:format:video"
	FormatAudio Format = "urn:x-nmos:format:audio"
	FormatData  Format = "urn:x-nmos:format:data"
)

// Transport identifies how a sender or receiver moves essence.
type Transport string

// Transport URNs defined by IS-04.
const (
	TransportRTP          Transport = "urn:x-nmos:transport:rtp"
	TransportRTPUnicast   Transport = "urn:x-nmos:transport:rtp.ucast"
	TransportRTPMulticast Transport = "urn:x-nmos:transport:rtp.mcast"
	TransportDASH         Transport = "urn:x-nmos:transport:dash"
)

// DeviceKind distinguishes generic devices from pipeline stages.
type DeviceKind string

// Device kind URNs defined by IS-04.
const (
	DeviceGeneric  DeviceKind = "urn:x-nmos:device:generic"
	DevicePipeline DeviceKind = "urn:x-nmos:device:pipeline"
)
