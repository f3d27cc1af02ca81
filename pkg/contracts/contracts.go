// Package contracts holds Twitter REST API v1.1 payloads in the shape the
// service documents them. Client and timeline tests are checked against
// these so a schema drift shows up in one place.
package contracts

// HomeTimeline is a statuses/home_timeline.json response: a plain status
// with every entity kind, and a retweet wrapping another user's status.
const HomeTimeline = `[
  {
    "created_at": "Wed Aug 29 17:12:58 +0000 2012",
    "id": 240859602684612608,
    "id_str": "240859602684612608",
    "text": "Café ☕ with @twitterapi #dev https://t.co/abc",
    "truncated": false,
    "favorited": false,
    "retweeted": false,
    "user": {
      "id": 6253282,
      "id_str": "6253282",
      "name": "Twitter API",
      "screen_name": "twitterapi",
      "profile_image_url_https": "https://si0.twimg.com/profile_images/2284174872/7df3h38zabcvjylnyfe3_normal.png"
    },
    "entities": {
      "hashtags": [{"text": "dev", "indices": [24, 28]}],
      "urls": [{
        "url": "https://t.co/abc",
        "display_url": "dev.twitter.com/terms",
        "expanded_url": "https://dev.twitter.com/terms",
        "indices": [29, 45]
      }],
      "user_mentions": [{
        "screen_name": "twitterapi",
        "name": "Twitter API",
        "id": 6253282,
        "id_str": "6253282",
        "indices": [12, 23]
      }]
    }
  },
  {
    "created_at": "Wed Aug 29 18:01:10 +0000 2012",
    "id_str": "240871732540133376",
    "text": "RT @twitter: Photos from the launch",
    "favorited": false,
    "retweeted": false,
    "user": {
      "id_str": "783214",
      "name": "Friend",
      "screen_name": "friend",
      "profile_image_url_https": "https://si0.twimg.com/profile_images/friend_normal.png"
    },
    "retweeted_status": {
      "created_at": "Wed Aug 29 16:40:02 +0000 2012",
      "id_str": "240851315021824000",
      "text": "Photos from the launch https://t.co/pic",
      "favorited": true,
      "retweeted": false,
      "user": {
        "id_str": "783214",
        "name": "Twitter",
        "screen_name": "twitter",
        "profile_image_url_https": "https://si0.twimg.com/profile_images/twitter_normal.png"
      },
      "entities": {
        "hashtags": [],
        "urls": [],
        "user_mentions": [],
        "media": [{
          "id_str": "240851314984075264",
          "url": "https://t.co/pic",
          "media_url_https": "https://pbs.twimg.com/media/A1tXtWzCEAAbtVB.jpg",
          "display_url": "pic.twitter.com/pic",
          "type": "photo",
          "indices": [23, 39]
        }]
      }
    },
    "entities": {
      "hashtags": [],
      "urls": [],
      "user_mentions": [{"screen_name": "twitter", "name": "Twitter", "id_str": "783214", "indices": [3, 11]}]
    }
  }
]`

// DirectMessages is a direct_messages.json response. Direct messages carry
// sender and recipient instead of user.
const DirectMessages = `[
  {
    "created_at": "Mon Aug 27 17:21:03 +0000 2012",
    "id_str": "240136858829479936",
    "text": "booyakasha",
    "sender_screen_name": "theSeanCook",
    "recipient_screen_name": "theseancook2",
    "sender": {
      "id_str": "38895958",
      "name": "Sean Cook",
      "screen_name": "theSeanCook",
      "profile_image_url_https": "https://si0.twimg.com/profile_images/1751506047/dead_sexy_normal.JPG"
    },
    "recipient": {
      "id_str": "737293580",
      "name": "Sean Test",
      "screen_name": "theseancook2",
      "profile_image_url_https": "https://si0.twimg.com/profile_images/test_normal.png"
    },
    "entities": {"hashtags": [], "urls": [], "user_mentions": []}
  }
]`

// Search is a search/tweets.json response.
const Search = `{
  "statuses": [
    {
      "created_at": "Sun Feb 25 18:11:01 +0000 2018",
      "id_str": "967824267948773377",
      "text": "From pilot to astronaut #nasa",
      "favorited": false,
      "retweeted": false,
      "user": {
        "id_str": "11348282",
        "name": "NASA",
        "screen_name": "NASA",
        "profile_image_url_https": "https://pbs.twimg.com/profile_images/188302352/nasalogo_twitter_normal.jpg"
      },
      "entities": {
        "hashtags": [{"text": "nasa", "indices": [24, 29]}],
        "urls": [],
        "user_mentions": []
      }
    }
  ],
  "search_metadata": {
    "completed_in": 0.047,
    "max_id_str": "967824267948773377",
    "query": "nasa",
    "count": 1
  }
}`

// ShowWithMyRetweet is a statuses/show.json?include_my_retweet=true
// response for a status the authenticated user has retweeted.
const ShowWithMyRetweet = `{
  "created_at": "Wed Aug 29 16:40:02 +0000 2012",
  "id_str": "240851315021824000",
  "text": "Photos from the launch https://t.co/pic",
  "retweeted": true,
  "user": {"id_str": "783214", "name": "Twitter", "screen_name": "twitter"},
  "current_user_retweet": {"id": 240872136896208896, "id_str": "240872136896208896"},
  "entities": {"hashtags": [], "urls": [], "user_mentions": []}
}`
