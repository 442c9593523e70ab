package blob

import (
	"context"
	"io"
	"strings"
	"testing"

	. "github.com/smartystreets/goconvey/convey"
)

func TestKey(t *testing.T) {
	Convey("Given uploaded file names", t, func() {
		Convey("Keys keep the extension and live under the folder", func() {
			k := Key("personas/p1", "hero shot.png")
			So(k, ShouldStartWith, "personas/p1/hero shot_")
			So(k, ShouldEndWith, ".png")
			So(Key("personas/p1", "hero shot.png"), ShouldNotEqual, k)
		})

		Convey("Directory components are dropped", func() {
			So(Key("a", `..\..\etc\passwd`), ShouldStartWith, "a/passwd_")
			So(Key("a", "../../x.jpg"), ShouldStartWith, "a/x_")
		})

		Convey("A bare extension gets a placeholder name", func() {
			So(Key("a", ".mp4"), ShouldStartWith, "a/asset_")
		})
	})
}

func TestMemoryStore(t *testing.T) {
	Convey("Given a memory blob store", t, func() {
		ctx := context.Background()
		s := NewMemoryStore("/blobs")

		url, err := s.Put(ctx, "personas/p1/a.png", "image/png", strings.NewReader("png-bytes"), 9)
		So(err, ShouldBeNil)
		So(url, ShouldEqual, "/blobs/personas/p1/a.png")
		So(s.Len(), ShouldEqual, 1)

		Convey("Open returns the content and type", func() {
			obj, err := s.Open(ctx, "personas/p1/a.png")
			So(err, ShouldBeNil)
			defer obj.Body.Close()
			data, _ := io.ReadAll(obj.Body)
			So(string(data), ShouldEqual, "png-bytes")
			So(obj.ContentType, ShouldEqual, "image/png")
			So(obj.Size, ShouldEqual, 9)
		})

		Convey("Deleted and unknown keys are not found", func() {
			So(s.Delete(ctx, "personas/p1/a.png"), ShouldBeNil)
			_, err := s.Open(ctx, "personas/p1/a.png")
			So(err, ShouldEqual, ErrNotFound)
			So(s.Delete(ctx, "missing"), ShouldBeNil)
		})
	})
}

func TestMinIOStoreURL(t *testing.T) {
	Convey("Given a MinIO store configuration", t, func() {
		s, err := NewMinIOStore(MinIOConfig{Endpoint: "localhost:9000", AccessKey: "k", SecretKey: "s", Bucket: "creative-assets"})
		So(err, ShouldBeNil)

		Convey("URLs are rooted at the endpoint and bucket", func() {
			So(s.URL("personas/p1/a.png"), ShouldEqual, "http://localhost:9000/creative-assets/personas/p1/a.png")
		})

		Convey("A public URL overrides the endpoint", func() {
			s, err := NewMinIOStore(MinIOConfig{Endpoint: "minio:9000", Bucket: "b", PublicURL: "https://cdn.example.com/"})
			So(err, ShouldBeNil)
			So(s.URL("k"), ShouldEqual, "https://cdn.example.com/b/k")
		})
	})
}
