package adapter

import "context"

var (
	ConvertJSONSchemaToGenaiForTest = convertJSONSchemaToGenai
	ObjectKeyForTest                = objectKey
	GCSObjectURLForTest             = gcsObjectURL
)

type FirebaseAuthForTest = firebaseAuth

func NewFirebaseIdentityForTest(ctx context.Context, client FirebaseAuthForTest, apiKey string, opts ...FirebaseOption) (*FirebaseIdentity, error) {
	return newFirebaseIdentity(ctx, client, apiKey, newFirebaseConfig(opts))
}
