package cloudinary

import (
	"testing"

	"github.com/velvetrowhq/velvetrow-backend/pkg/config"
)

func testClient() *Client {
	return NewClient(config.CloudinaryConfig{
		CloudName:  "velvet-test",
		APIKey:     "key",
		APISecret:  "secret",
		RootFolder: "velvetrow",
	}, nil)
}

func TestTransformationEncodeIsDeterministic(t *testing.T) {
	tr := Transformation{Width: 150, Height: 150, Crop: "fill", Gravity: "auto", Quality: "auto:good"}
	want := "c_fill,g_auto,h_150,q_auto:good,w_150"

	for i := 0; i < 3; i++ {
		if got := tr.Encode(); got != want {
			t.Fatalf("Encode() = %q, want %q", got, want)
		}
	}
}

func TestTransformationEncodeSkipsZeroFields(t *testing.T) {
	if got := (Transformation{}).Encode(); got != "" {
		t.Fatalf("empty transformation encoded to %q", got)
	}
	if got := (Transformation{Quality: "auto:good", FetchFormat: "auto", DPR: "auto"}).Encode(); got != "dpr_auto,f_auto,q_auto:good" {
		t.Fatalf("image preset encoded to %q", got)
	}
	if got := (Transformation{Quality: "auto:good", VideoCodec: "h264", FetchFormat: "mp4"}).Encode(); got != "f_mp4,q_auto:good,vc_h264" {
		t.Fatalf("video preset encoded to %q", got)
	}
}

func TestEncodeChainJoinsWithSlash(t *testing.T) {
	chain := EncodeChain([]Transformation{
		{Quality: "auto:good"},
		{},
		{Width: 400, Height: 300, Crop: "fill"},
	})
	if chain != "q_auto:good/c_fill,h_300,w_400" {
		t.Fatalf("chain = %q", chain)
	}
}

func TestTransformationURL(t *testing.T) {
	c := testClient()

	url := c.TransformationURL("velvetrow/product/abc123", DefaultImageTransformations(), ResourceTypeImage)
	want := "https://res.cloudinary.com/velvet-test/image/upload/dpr_auto,f_auto,q_auto:good/velvetrow/product/abc123"
	if url != want {
		t.Fatalf("TransformationURL = %q, want %q", url, want)
	}

	plain := c.TransformationURL("abc", nil, "")
	if plain != "https://res.cloudinary.com/velvet-test/image/upload/abc" {
		t.Fatalf("plain url = %q", plain)
	}
}

func TestVideoThumbnailURL(t *testing.T) {
	c := testClient()
	url := c.VideoThumbnailURL("vid1", 300, 200)
	want := "https://res.cloudinary.com/velvet-test/video/upload/c_fill,f_jpg,h_200,so_0,w_300/vid1"
	if url != want {
		t.Fatalf("VideoThumbnailURL = %q, want %q", url, want)
	}
}
